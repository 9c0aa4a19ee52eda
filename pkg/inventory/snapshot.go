package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	dockerTypes "github.com/docker/docker/api/types"
	dockerContainer "github.com/docker/docker/api/types/container"
	dockerImage "github.com/docker/docker/api/types/image"
	dockerMount "github.com/docker/docker/api/types/mount"
	dockerNetwork "github.com/docker/docker/api/types/network"

	"github.com/pruneplan/pruneplan/pkg/classify"
	"github.com/pruneplan/pruneplan/pkg/types"
)

// builtinNetworks are the engine's default networks, never prunable.
var builtinNetworks = map[string]struct{}{
	"bridge": {},
	"host":   {},
	"none":   {},
}

// Snapshot enumerates every object kind in one pass. A kind whose listing
// fails is recorded on the snapshot and skipped; the remaining kinds are
// still collected so the planner can produce a partial preview.
func (c *client) Snapshot(ctx context.Context) *types.Snapshot {
	snap := &types.Snapshot{
		TakenAt:        time.Now(),
		MountedVolumes: make(map[string]struct{}),
		LayerSizes:     make(map[types.LayerID]int64),
		Errs:           make(map[types.Kind]error),
	}

	c.collectContainers(ctx, snap)
	c.collectImages(ctx, snap)
	c.collectNetworks(ctx, snap)
	c.collectDiskUsage(ctx, snap)

	// Image and volume usage is derived from the container listing. If
	// containers could not be enumerated, usage for those kinds is
	// unknowable and planning them would risk selecting in-use objects.
	if err := snap.Errs[types.KindContainers]; err != nil {
		wrapped := fmt.Errorf("usage unknown without container listing: %w", err)
		if snap.Errs[types.KindImages] == nil {
			snap.Errs[types.KindImages] = wrapped
		}

		if snap.Errs[types.KindVolumes] == nil {
			snap.Errs[types.KindVolumes] = wrapped
		}
	}

	logrus.WithFields(logrus.Fields{
		"containers":  len(snap.Containers),
		"images":      len(snap.Images),
		"volumes":     len(snap.Volumes),
		"networks":    len(snap.Networks),
		"build_cache": len(snap.BuildCache),
		"failures":    len(snap.Errs),
	}).Debug("Collected inventory snapshot")

	return snap
}

func (c *client) collectContainers(ctx context.Context, snap *types.Snapshot) {
	containers, err := c.api.ContainerList(ctx, dockerContainer.ListOptions{
		All:  true,
		Size: true,
	})
	if err != nil {
		snap.Errs[types.KindContainers] = fmt.Errorf("failed to list containers: %w", err)

		logrus.WithError(err).Warn("Failed to list containers")

		return
	}

	snap.Containers = make([]types.ContainerRecord, 0, len(containers))

	for _, ctr := range containers {
		snap.Containers = append(snap.Containers, containerRecord(ctr))

		for _, mnt := range ctr.Mounts {
			if mnt.Type == dockerMount.TypeVolume && mnt.Name != "" {
				snap.MountedVolumes[mnt.Name] = struct{}{}
			}
		}
	}
}

func (c *client) collectImages(ctx context.Context, snap *types.Snapshot) {
	images, err := c.api.ImageList(ctx, dockerImage.ListOptions{SharedSize: true})
	if err != nil {
		snap.Errs[types.KindImages] = fmt.Errorf("failed to list images: %w", err)

		logrus.WithError(err).Warn("Failed to list images")

		return
	}

	snap.Images = make([]types.ImageRecord, 0, len(images))

	for _, img := range images {
		record := types.ImageRecord{
			ID:         types.ImageID(img.ID),
			RepoTags:   img.RepoTags,
			Size:       img.Size,
			SharedSize: img.SharedSize,
			Created:    img.Created,
			Containers: img.Containers,
		}

		// Layer digests and sizes are best-effort: a failed inspect
		// leaves the record without layers and the estimator falls
		// back to the engine's shared-size figure.
		record.Layers = c.imageLayers(ctx, img.ID, snap)

		snap.Images = append(snap.Images, record)
	}
}

// imageLayers inspects one image for its layer digests and fills the
// snapshot's layer size index from the image history where the two line up.
func (c *client) imageLayers(ctx context.Context, imageID string, snap *types.Snapshot) []types.LayerID {
	info, err := c.api.ImageInspect(ctx, imageID)
	if err != nil {
		logrus.WithError(err).WithField("image", types.TruncateID(imageID)).
			Debug("Failed to inspect image, skipping layer accounting")

		return nil
	}

	layers := make([]types.LayerID, 0, len(info.RootFS.Layers))
	for _, digest := range info.RootFS.Layers {
		layers = append(layers, types.LayerID(digest))
	}

	c.indexLayerSizes(ctx, imageID, layers, snap)

	return layers
}

// indexLayerSizes matches history entries to layer digests. History is
// returned newest-first and includes metadata-only entries, so the match is
// heuristic: entries are reversed and zipped against the digests either when
// the counts agree outright or when the non-empty entries alone agree.
func (c *client) indexLayerSizes(
	ctx context.Context,
	imageID string,
	layers []types.LayerID,
	snap *types.Snapshot,
) {
	if len(layers) == 0 {
		return
	}

	history, err := c.api.ImageHistory(ctx, imageID)
	if err != nil {
		logrus.WithError(err).WithField("image", types.TruncateID(imageID)).
			Debug("Failed to fetch image history")

		return
	}

	sizes := make([]int64, 0, len(history))
	nonEmpty := make([]int64, 0, len(history))

	// Oldest first, matching RootFS layer order.
	for i := len(history) - 1; i >= 0; i-- {
		sizes = append(sizes, history[i].Size)

		if history[i].Size > 0 {
			nonEmpty = append(nonEmpty, history[i].Size)
		}
	}

	switch {
	case len(sizes) == len(layers):
	case len(nonEmpty) == len(layers):
		sizes = nonEmpty
	default:
		logrus.WithFields(logrus.Fields{
			"image":   types.TruncateID(imageID),
			"history": len(sizes),
			"layers":  len(layers),
		}).Debug("History does not line up with layers, skipping size index")

		return
	}

	for i, layer := range layers {
		snap.LayerSizes[layer] = sizes[i]
	}
}

func (c *client) collectNetworks(ctx context.Context, snap *types.Snapshot) {
	networks, err := c.api.NetworkList(ctx, dockerNetwork.ListOptions{})
	if err != nil {
		snap.Errs[types.KindNetworks] = fmt.Errorf("failed to list networks: %w", err)

		logrus.WithError(err).Warn("Failed to list networks")

		return
	}

	snap.Networks = make([]types.NetworkRecord, 0, len(networks))

	for _, net := range networks {
		_, builtin := builtinNetworks[net.Name]

		record := types.NetworkRecord{
			ID:      types.NetworkID(net.ID),
			Name:    net.Name,
			Builtin: builtin,
		}

		// The listing omits attached containers; each candidate needs
		// an inspect. Built-ins are never pruned, so skip theirs.
		if !builtin {
			record.Attached = c.networkAttached(ctx, net.ID)
		}

		snap.Networks = append(snap.Networks, record)
	}
}

// networkAttached inspects a network for connected containers. An inspect
// failure reports the network as attached so it is never planned for
// removal on uncertain data.
func (c *client) networkAttached(ctx context.Context, networkID string) bool {
	info, err := c.api.NetworkInspect(ctx, networkID, dockerNetwork.InspectOptions{})
	if err != nil {
		logrus.WithError(err).WithField("network", types.TruncateID(networkID)).
			Debug("Failed to inspect network, treating as in use")

		return true
	}

	return len(info.Containers) > 0
}

// collectDiskUsage fetches volumes and build-cache entries. Both come from
// the disk-usage endpoint because plain listings carry no size information.
func (c *client) collectDiskUsage(ctx context.Context, snap *types.Snapshot) {
	usage, err := c.api.DiskUsage(ctx, dockerTypes.DiskUsageOptions{})
	if err != nil {
		snap.Errs[types.KindVolumes] = fmt.Errorf("failed to fetch disk usage: %w", err)
		snap.Errs[types.KindBuildCache] = fmt.Errorf("failed to fetch disk usage: %w", err)

		logrus.WithError(err).Warn("Failed to fetch disk usage")

		return
	}

	snap.Volumes = make([]types.VolumeRecord, 0, len(usage.Volumes))

	for _, vol := range usage.Volumes {
		if vol == nil {
			continue
		}

		record := types.VolumeRecord{
			Name:      vol.Name,
			Anonymous: classify.AnonymousVolumeName(vol.Name),
			Size:      types.SizeUnknown,
		}

		if _, mounted := snap.MountedVolumes[vol.Name]; mounted {
			record.Mounted = true
		}

		if vol.UsageData != nil {
			record.Size = vol.UsageData.Size
			if vol.UsageData.RefCount > 0 {
				record.Mounted = true
			}
		}

		snap.Volumes = append(snap.Volumes, record)
	}

	snap.BuildCache = make([]types.BuildCacheRecord, 0, len(usage.BuildCache))

	for _, entry := range usage.BuildCache {
		if entry == nil {
			continue
		}

		record := types.BuildCacheRecord{
			ID:          entry.ID,
			Description: entry.Description,
			Size:        entry.Size,
			Shared:      entry.Shared,
			InUse:       entry.InUse,
		}

		if entry.LastUsedAt != nil {
			record.LastUsedAt = *entry.LastUsedAt
		}

		snap.BuildCache = append(snap.BuildCache, record)
	}
}

// containerRecord converts one engine container summary.
func containerRecord(ctr dockerContainer.Summary) types.ContainerRecord {
	name := ""
	if len(ctr.Names) > 0 {
		name = strings.TrimPrefix(ctr.Names[0], "/")
	}

	return types.ContainerRecord{
		ID:        types.ContainerID(ctr.ID),
		Name:      name,
		ImageID:   types.ImageID(ctr.ImageID),
		ImageName: ctr.Image,
		State:     string(ctr.State),
		Status:    ctr.Status,
		SizeRw:    ctr.SizeRw,
	}
}
