// Package types defines the core data model for prune-plan.
// It provides read-only record types for the five prunable Docker object
// kinds, the inventory snapshot they are collected into, and the PrunePlan
// produced by the planner.
//
// Key components:
//   - ImageRecord, ContainerRecord, VolumeRecord, NetworkRecord, BuildCacheRecord: Per-kind inventory records.
//   - Snapshot: A single immutable inventory capture, including per-kind listing errors.
//   - PrunePlan: The structured preview result handed to the presentation layer.
//   - Kind: Enumeration of prunable object kinds.
package types
