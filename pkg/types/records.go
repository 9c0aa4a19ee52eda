package types

import "time"

// SizeUnknown marks a size the engine did not report. Records carrying it are
// displayed without a size and contribute nothing to reclaimable totals.
const SizeUnknown int64 = -1

// ImageRecord describes one top-level image from the inventory.
type ImageRecord struct {
	// ID is the image's content-addressable identifier (sha256-prefixed).
	ID ImageID
	// RepoTags holds the image's repo:tag references. Empty (or engine
	// placeholder entries only) marks the image as a dangling candidate.
	RepoTags []string
	// Size is the image's total size in bytes, shared layers included.
	Size int64
	// SharedSize is the portion of Size shared with other images, or
	// SizeUnknown when the engine did not compute it.
	SharedSize int64
	// Layers lists the image's layer digests in order, used by the space
	// estimator to avoid counting a shared layer more than once. May be
	// empty when per-image inspection failed.
	Layers []LayerID
	// Created is the image build time as a Unix timestamp, zero if unknown.
	Created int64
	// Containers is the engine-reported count of containers using this
	// image, or SizeUnknown when not computed by the listing endpoint.
	Containers int64
}

// Dangling reports whether the image has no usable tag reference.
func (r ImageRecord) Dangling() bool {
	for _, tag := range r.RepoTags {
		if tag != "" && tag != "<none>:<none>" && tag != "<none>" {
			return false
		}
	}

	return true
}

// ContainerRecord describes one container from the inventory.
type ContainerRecord struct {
	ID ContainerID
	// Name is the container's primary name without the leading slash.
	Name string
	// ImageID identifies the image the container was created from.
	ImageID ImageID
	// ImageName is the reference the container was created with, which may
	// be a bare image ID when the tag has since been removed.
	ImageName string
	// State is the engine state string: running, exited, created, dead,
	// paused, restarting or removing.
	State string
	// Status is the engine's human status line, e.g. "Exited (0) 2 days ago".
	Status string
	// SizeRw is the size of the container's writable layer in bytes.
	SizeRw int64
}

// Stopped reports whether the container is in one of the states container
// pruning removes. Anything else, unknown states included, is treated as
// running so uncertain containers never enter a plan.
func (r ContainerRecord) Stopped() bool {
	switch r.State {
	case "created", "exited", "dead":
		return true
	}

	return false
}

// VolumeRecord describes one volume from the inventory. Volumes have no
// separate ID; the name is the identifier.
type VolumeRecord struct {
	Name string
	// Anonymous is true for engine-generated hex names, false for
	// user-named volumes.
	Anonymous bool
	// Mounted is true when any container has the volume mounted.
	Mounted bool
	// Size is the volume's size in bytes, or SizeUnknown.
	Size int64
}

// NetworkRecord describes one network from the inventory.
type NetworkRecord struct {
	ID   NetworkID
	Name string
	// Builtin is true for the engine's default networks (bridge, host,
	// none), which are never prunable.
	Builtin bool
	// Attached is true when any container is connected to the network.
	Attached bool
}

// BuildCacheRecord describes one build-cache entry from the inventory.
type BuildCacheRecord struct {
	ID          string
	Description string
	Size        int64
	// Shared is true when the entry's data is shared with other cache
	// entries; totals treat shared entries as best-effort.
	Shared bool
	// InUse is true when an active build holds the entry.
	InUse bool
	// LastUsedAt is the entry's last use time, zero if unknown.
	LastUsedAt time.Time
}

// Snapshot is a single immutable capture of the engine's inventory. All
// classification and planning for one invocation reads from one Snapshot;
// nothing mutates it after collection.
type Snapshot struct {
	// TakenAt records when the snapshot was collected.
	TakenAt time.Time

	Containers []ContainerRecord
	Images     []ImageRecord
	Volumes    []VolumeRecord
	Networks   []NetworkRecord
	BuildCache []BuildCacheRecord

	// MountedVolumes holds the names of volumes mounted by any container,
	// keyed for O(1) lookup during classification.
	MountedVolumes map[string]struct{}

	// LayerSizes maps layer digests to their sizes in bytes where the
	// engine exposed them. Best-effort: layers missing from the map are
	// handled conservatively by the estimator.
	LayerSizes map[LayerID]int64

	// Errs records per-kind listing failures. A kind present here was not
	// enumerated; plans built from this snapshot mark it degraded instead
	// of failing.
	Errs map[Kind]error
}

// KindErr returns the listing error for a kind, or nil if the kind was
// enumerated successfully.
func (s *Snapshot) KindErr(kind Kind) error {
	if s.Errs == nil {
		return nil
	}

	return s.Errs[kind]
}
