// Package classify derives usage information from an inventory snapshot.
// It builds a read-only UsageIndex answering, for any object identifier,
// whether the object is in use and, for images, whether it is dangling.
//
// The index is fail-safe: an identifier the snapshot never enumerated is
// reported as in use, so uncertain objects are never planned for removal.
package classify

import (
	"regexp"
	"strings"

	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	"github.com/pruneplan/pruneplan/pkg/types"
)

// sha256Prefix is the digest algorithm prefix the engine uses for object IDs.
const sha256Prefix = "sha256:"

// bareDigestPattern matches a 64-character hex image ID without the
// algorithm prefix, as found in container Image fields for untagged images.
var bareDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// UsageIndex is a derived, read-only view over one snapshot. Lookups for
// identifiers absent from the snapshot answer "in use".
type UsageIndex struct {
	usedImages     map[types.ImageID]struct{}
	knownImages    map[types.ImageID]struct{}
	danglingImages map[types.ImageID]struct{}
	mountedVolumes map[string]struct{}
	knownVolumes   map[string]struct{}
	busyNetworks   map[types.NetworkID]struct{}
	knownNetworks  map[types.NetworkID]struct{}
	activeCache    map[string]struct{}
	knownCache     map[string]struct{}
}

// Classify builds a UsageIndex from one snapshot. It runs a single pass over
// each kind and the container cross-references, producing id-keyed lookups
// rather than back-references so the records stay immutable.
func Classify(snap *types.Snapshot) *UsageIndex {
	idx := &UsageIndex{
		usedImages:     make(map[types.ImageID]struct{}),
		knownImages:    make(map[types.ImageID]struct{}, len(snap.Images)),
		danglingImages: make(map[types.ImageID]struct{}),
		mountedVolumes: make(map[string]struct{}, len(snap.MountedVolumes)),
		knownVolumes:   make(map[string]struct{}, len(snap.Volumes)),
		busyNetworks:   make(map[types.NetworkID]struct{}),
		knownNetworks:  make(map[types.NetworkID]struct{}, len(snap.Networks)),
		activeCache:    make(map[string]struct{}),
		knownCache:     make(map[string]struct{}, len(snap.BuildCache)),
	}

	idx.indexImages(snap)
	idx.indexVolumes(snap)
	idx.indexNetworks(snap)
	idx.indexBuildCache(snap)

	return idx
}

// indexImages records known and dangling images and collects the set of
// images referenced by any container, whatever its state.
func (idx *UsageIndex) indexImages(snap *types.Snapshot) {
	for _, img := range snap.Images {
		id := normalizeImageID(string(img.ID))
		idx.knownImages[id] = struct{}{}

		if imageDangling(img) {
			idx.danglingImages[id] = struct{}{}
		}

		// The listing endpoint reports container counts when asked;
		// trust a positive count even if the container listing itself
		// was degraded.
		if img.Containers > 0 {
			idx.usedImages[id] = struct{}{}
		}
	}

	for _, ctr := range snap.Containers {
		if ctr.ImageID != "" {
			idx.usedImages[normalizeImageID(string(ctr.ImageID))] = struct{}{}

			continue
		}

		// Containers created directly from an image ID carry it in the
		// image name field instead.
		if name := ctr.ImageName; strings.HasPrefix(name, sha256Prefix) ||
			bareDigestPattern.MatchString(name) {
			idx.usedImages[normalizeImageID(name)] = struct{}{}
		}
	}
}

func (idx *UsageIndex) indexVolumes(snap *types.Snapshot) {
	for _, vol := range snap.Volumes {
		idx.knownVolumes[vol.Name] = struct{}{}

		if vol.Mounted {
			idx.mountedVolumes[vol.Name] = struct{}{}
		}
	}

	for name := range snap.MountedVolumes {
		idx.mountedVolumes[name] = struct{}{}
	}
}

// indexNetworks marks attached and built-in networks busy. Built-in default
// networks are treated as permanently in use for pruning purposes.
func (idx *UsageIndex) indexNetworks(snap *types.Snapshot) {
	for _, net := range snap.Networks {
		idx.knownNetworks[net.ID] = struct{}{}

		if net.Attached || net.Builtin {
			idx.busyNetworks[net.ID] = struct{}{}
		}
	}
}

// indexBuildCache records active cache entries from the engine's own flag;
// activity is never inferred independently.
func (idx *UsageIndex) indexBuildCache(snap *types.Snapshot) {
	for _, entry := range snap.BuildCache {
		idx.knownCache[entry.ID] = struct{}{}

		if entry.InUse {
			idx.activeCache[entry.ID] = struct{}{}
		}
	}
}

// ImageInUse reports whether at least one container references the image.
// Unknown images are reported as in use.
func (idx *UsageIndex) ImageInUse(id types.ImageID) bool {
	normalized := normalizeImageID(string(id))
	if _, known := idx.knownImages[normalized]; !known {
		return true
	}

	_, used := idx.usedImages[normalized]

	return used
}

// ImageDangling reports whether the image has no usable tag. Unknown images
// are reported as not dangling, keeping them out of every plan.
func (idx *UsageIndex) ImageDangling(id types.ImageID) bool {
	_, dangling := idx.danglingImages[normalizeImageID(string(id))]

	return dangling
}

// VolumeInUse reports whether any container mounts the volume. Unknown
// volumes are reported as in use.
func (idx *UsageIndex) VolumeInUse(name string) bool {
	if _, known := idx.knownVolumes[name]; !known {
		return true
	}

	_, mounted := idx.mountedVolumes[name]

	return mounted
}

// NetworkInUse reports whether the network has attached containers or is one
// of the engine's built-in defaults. Unknown networks are reported as in use.
func (idx *UsageIndex) NetworkInUse(id types.NetworkID) bool {
	if _, known := idx.knownNetworks[id]; !known {
		return true
	}

	_, busy := idx.busyNetworks[id]

	return busy
}

// CacheInUse reports whether an active build holds the cache entry. Unknown
// entries are reported as in use.
func (idx *UsageIndex) CacheInUse(id string) bool {
	if _, known := idx.knownCache[id]; !known {
		return true
	}

	_, active := idx.activeCache[id]

	return active
}

// imageDangling checks the record's tags through the reference parser. A tag
// the parser rejects (notably the engine's "<none>:<none>" placeholder) does
// not count as a name.
func imageDangling(img types.ImageRecord) bool {
	for _, tag := range img.RepoTags {
		if tag == "" {
			continue
		}

		if _, err := reference.ParseNormalizedNamed(tag); err != nil {
			logrus.WithFields(logrus.Fields{
				"image": img.ID.ShortID(),
				"tag":   tag,
			}).Debug("Ignoring unparseable image tag")

			continue
		}

		return false
	}

	return true
}

// normalizeImageID gives image IDs a consistent sha256 prefix so container
// references and image listings compare equal.
func normalizeImageID(id string) types.ImageID {
	if id == "" {
		return ""
	}

	if strings.HasPrefix(id, sha256Prefix) {
		return types.ImageID(id)
	}

	return types.ImageID(sha256Prefix + id)
}

// AnonymousVolumeName reports whether a volume name looks engine-generated:
// a 32 to 64 character lowercase hex string.
func AnonymousVolumeName(name string) bool {
	if len(name) < 32 || len(name) > 64 {
		return false
	}

	for _, r := range name {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}

	return true
}
