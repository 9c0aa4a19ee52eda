package planner

import (
	"github.com/sirupsen/logrus"

	"github.com/pruneplan/pruneplan/pkg/types"
)

// Estimate fills the plan's per-kind subtotals and grand total from the
// selected items, de-duplicating data shared between selected objects.
//
// Containers contribute their writable-layer size, volumes their reported
// size, networks nothing. Selected images are walked in plan order against a
// seen-layer set: each image contributes its full size minus the sizes of
// layers an earlier selected image already contributed. When the snapshot
// has no size for an already-seen layer, the image's engine-reported shared
// size stands in for the overlap. Build-cache entries are counted once per
// distinct cache ID.
//
// The result is best-effort by design: true shared-layer and cache-internal
// accounting is engine-private, so the total may diverge from the engine's
// own disk-usage numbers. It never double-counts a layer the snapshot knows
// about, and per-kind subtotals never exceed the naive sum of item sizes.
func Estimate(plan *types.PrunePlan, snap *types.Snapshot) {
	for kind := range plan.Subtotals {
		plan.Subtotals[kind] = 0
	}

	estimateImages(plan, snap)
	estimateFlat(plan, snap)

	total := int64(0)
	for _, subtotal := range plan.Subtotals {
		total += subtotal
	}

	plan.TotalReclaimable = total
}

// estimateImages computes the image subtotal with layer de-duplication.
func estimateImages(plan *types.PrunePlan, snap *types.Snapshot) {
	if _, inScope := plan.Subtotals[types.KindImages]; !inScope {
		return
	}

	selected := make(map[string]struct{})
	for _, item := range plan.ItemsOfKind(types.KindImages) {
		selected[item.ID] = struct{}{}
	}

	seen := make(map[types.LayerID]struct{})

	subtotal := int64(0)

	for _, img := range snap.Images {
		if _, ok := selected[img.ID.ShortID()]; !ok {
			continue
		}

		duplicated := int64(0)
		unknownOverlap := false

		for _, layer := range img.Layers {
			if _, already := seen[layer]; already {
				if size, ok := snap.LayerSizes[layer]; ok {
					duplicated += size
				} else {
					unknownOverlap = true
				}
			} else {
				seen[layer] = struct{}{}
			}
		}

		contribution := img.Size - duplicated

		// No layer sizes available for the overlap: fall back to the
		// engine's shared-size figure for this image.
		if unknownOverlap && duplicated == 0 && img.SharedSize > 0 {
			contribution = img.Size - img.SharedSize
		}

		if contribution < 0 {
			logrus.WithField("image", img.ID.ShortID()).
				Debug("Layer accounting exceeded image size, clamping to zero")

			contribution = 0
		}

		subtotal += contribution
	}

	plan.Subtotals[types.KindImages] = subtotal
}

// estimateFlat sums the kinds without cross-object sharing. Build-cache IDs
// are still de-duplicated in case an entry was enumerated twice.
func estimateFlat(plan *types.PrunePlan, _ *types.Snapshot) {
	seenCache := make(map[string]struct{})

	for _, item := range plan.Items {
		switch item.Kind {
		case types.KindContainers, types.KindVolumes:
			if item.Size > 0 {
				plan.Subtotals[item.Kind] += item.Size
			}
		case types.KindBuildCache:
			if _, dup := seenCache[item.ID]; dup {
				continue
			}

			seenCache[item.ID] = struct{}{}

			if item.Size > 0 {
				plan.Subtotals[item.Kind] += item.Size
			}
		case types.KindNetworks, types.KindImages:
			// Networks reclaim no space; images are handled with
			// layer de-duplication in estimateImages.
		}
	}
}
