// Package planner turns an inventory snapshot and resolved scope rules into
// a PrunePlan: the concrete list of objects the corresponding docker prune
// invocation would remove, with de-duplicated space estimates.
//
// Planning is a pure function of its inputs. Selection order is inventory
// order within each kind, so plans over the same snapshot are identical
// across calls.
package planner

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pruneplan/pruneplan/pkg/classify"
	"github.com/pruneplan/pruneplan/pkg/scope"
	"github.com/pruneplan/pruneplan/pkg/types"
)

// Plan selects every object the resolved scope would prune out of the given
// snapshot and fills in the space estimates. Kinds whose listing failed are
// skipped and marked degraded; nothing aborts the plan.
func Plan(snap *types.Snapshot, rules scope.Rules) *types.PrunePlan {
	idx := classify.Classify(snap)

	plan := &types.PrunePlan{
		Scope:     rules.Subcommand,
		Subtotals: make(map[types.Kind]int64, len(rules.Kinds())),
	}

	for _, kind := range rules.Kinds() {
		if err := snap.KindErr(kind); err != nil {
			logrus.WithError(err).WithField("kind", string(kind)).
				Warn("Inventory unavailable, marking kind degraded")
			plan.Degraded = append(plan.Degraded, kind)

			continue
		}

		plan.Subtotals[kind] = 0
		plan.Items = append(plan.Items, selectKind(kind, snap, idx, rules)...)
	}

	Estimate(plan, snap)

	logrus.WithFields(logrus.Fields{
		"scope":       plan.Scope,
		"items":       len(plan.Items),
		"reclaimable": plan.TotalReclaimable,
		"degraded":    len(plan.Degraded),
	}).Debug("Built prune plan")

	return plan
}

func selectKind(
	kind types.Kind,
	snap *types.Snapshot,
	idx *classify.UsageIndex,
	rules scope.Rules,
) []types.PlanItem {
	switch kind {
	case types.KindContainers:
		return selectContainers(snap)
	case types.KindNetworks:
		return selectNetworks(snap, idx)
	case types.KindImages:
		return selectImages(snap, idx, rules.Image())
	case types.KindVolumes:
		return selectVolumes(snap, idx, rules.Volume())
	case types.KindBuildCache:
		return selectBuildCache(snap, idx)
	}

	return nil
}

// selectContainers picks every stopped container. Running (and paused,
// restarting) containers are structurally excluded from every scope.
func selectContainers(snap *types.Snapshot) []types.PlanItem {
	var items []types.PlanItem

	for _, ctr := range snap.Containers {
		if !ctr.Stopped() {
			continue
		}

		reason := "Stopped container"
		if ctr.Status != "" {
			reason = "Status: " + ctr.Status
		}

		items = append(items, types.PlanItem{
			Kind:   types.KindContainers,
			ID:     ctr.ID.ShortID(),
			Name:   ctr.Name,
			Size:   ctr.SizeRw,
			Reason: reason,
		})
	}

	return items
}

// selectNetworks picks unused custom networks. Built-in default networks are
// classified as permanently in use and never appear.
func selectNetworks(snap *types.Snapshot, idx *classify.UsageIndex) []types.PlanItem {
	var items []types.PlanItem

	for _, net := range snap.Networks {
		if idx.NetworkInUse(net.ID) {
			continue
		}

		items = append(items, types.PlanItem{
			Kind:   types.KindNetworks,
			ID:     net.ID.ShortID(),
			Name:   net.Name,
			Size:   0,
			Reason: "Unused network",
		})
	}

	return items
}

func selectImages(
	snap *types.Snapshot,
	idx *classify.UsageIndex,
	rule scope.ImageRule,
) []types.PlanItem {
	var items []types.PlanItem

	for _, img := range snap.Images {
		if idx.ImageInUse(img.ID) {
			continue
		}

		if rule == scope.ImagesDangling && !idx.ImageDangling(img.ID) {
			continue
		}

		reason := "Unused image (no containers)"
		if idx.ImageDangling(img.ID) {
			reason = "Dangling image"
		}

		if img.Created > 0 {
			reason += "; Created: " + time.Unix(img.Created, 0).UTC().Format(time.RFC3339)
		}

		items = append(items, types.PlanItem{
			Kind:   types.KindImages,
			ID:     img.ID.ShortID(),
			Name:   imageLabel(img),
			Size:   img.Size,
			Reason: reason,
		})
	}

	return items
}

func selectVolumes(
	snap *types.Snapshot,
	idx *classify.UsageIndex,
	rule scope.VolumeRule,
) []types.PlanItem {
	var items []types.PlanItem

	for _, vol := range snap.Volumes {
		if vol.Name == "" || idx.VolumeInUse(vol.Name) {
			continue
		}

		anonymous := vol.Anonymous || classify.AnonymousVolumeName(vol.Name)
		if rule == scope.VolumesAnonymous && !anonymous {
			continue
		}

		reason := "Unused volume"
		if anonymous {
			reason = "Unused volume (anonymous)"
		}

		items = append(items, types.PlanItem{
			Kind:   types.KindVolumes,
			ID:     vol.Name,
			Name:   vol.Name,
			Size:   vol.Size,
			Reason: reason,
		})
	}

	return items
}

func selectBuildCache(snap *types.Snapshot, idx *classify.UsageIndex) []types.PlanItem {
	var items []types.PlanItem

	for _, entry := range snap.BuildCache {
		if idx.CacheInUse(entry.ID) {
			continue
		}

		reason := entry.Description
		if !entry.LastUsedAt.IsZero() {
			if reason != "" {
				reason += "; "
			}

			reason += "Last used: " + entry.LastUsedAt.UTC().Format(time.RFC3339)
		}

		items = append(items, types.PlanItem{
			Kind:   types.KindBuildCache,
			ID:     types.TruncateID(entry.ID),
			Name:   entry.Description,
			Size:   entry.Size,
			Reason: reason,
		})
	}

	return items
}

// imageLabel joins an image's usable tags, falling back to the engine's
// placeholder for dangling images.
func imageLabel(img types.ImageRecord) string {
	label := ""

	for _, tag := range img.RepoTags {
		if tag == "" || tag == "<none>:<none>" || tag == "<none>" {
			continue
		}

		if label != "" {
			label += ", "
		}

		label += tag
	}

	if label == "" {
		return "<none>"
	}

	return label
}
