package classify_test

import (
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/pruneplan/pruneplan/pkg/classify"
	"github.com/pruneplan/pruneplan/pkg/types"
)

var (
	imageID  = types.ImageID("sha256:" + strings.Repeat("1", 64))
	bareID   = strings.Repeat("2", 64)
	otherID  = types.ImageID("sha256:" + strings.Repeat("3", 64))
	customID = types.NetworkID(strings.Repeat("4", 64))
	brID     = types.NetworkID(strings.Repeat("5", 64))
)

var _ = ginkgo.Describe("the usage classifier", func() {
	ginkgo.Describe("image usage", func() {
		ginkgo.It("marks an image in use when a container references it by ID", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{{ID: imageID}},
				Containers: []types.ContainerRecord{
					{ID: "c1", ImageID: imageID, State: "exited"},
				},
			})

			gomega.Expect(idx.ImageInUse(imageID)).To(gomega.BeTrue())
		})

		ginkgo.It("matches container references without the sha256 prefix", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{{ID: types.ImageID("sha256:" + bareID)}},
				Containers: []types.ContainerRecord{
					{ID: "c1", ImageName: bareID, State: "running"},
				},
			})

			gomega.Expect(idx.ImageInUse(types.ImageID("sha256:" + bareID))).
				To(gomega.BeTrue())
		})

		ginkgo.It("marks an unreferenced image unused", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{{ID: imageID}},
			})

			gomega.Expect(idx.ImageInUse(imageID)).To(gomega.BeFalse())
		})

		ginkgo.It("trusts a positive engine-reported container count", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{{ID: imageID, Containers: 1}},
			})

			gomega.Expect(idx.ImageInUse(imageID)).To(gomega.BeTrue())
		})

		ginkgo.It("reports unknown images as in use", func() {
			idx := classify.Classify(&types.Snapshot{})

			gomega.Expect(idx.ImageInUse(otherID)).To(gomega.BeTrue())
			gomega.Expect(idx.ImageDangling(otherID)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("dangling detection", func() {
		ginkgo.It("treats an untagged image as dangling", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{{ID: imageID}},
			})

			gomega.Expect(idx.ImageDangling(imageID)).To(gomega.BeTrue())
		})

		ginkgo.It("treats the engine's none placeholder as no tag", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{
					{ID: imageID, RepoTags: []string{"<none>:<none>"}},
				},
			})

			gomega.Expect(idx.ImageDangling(imageID)).To(gomega.BeTrue())
		})

		ginkgo.It("treats any parseable tag as a name", func() {
			idx := classify.Classify(&types.Snapshot{
				Images: []types.ImageRecord{
					{ID: imageID, RepoTags: []string{"registry.example.com/app:v1"}},
				},
			})

			gomega.Expect(idx.ImageDangling(imageID)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("volume usage", func() {
		ginkgo.It("marks mounted volumes in use", func() {
			idx := classify.Classify(&types.Snapshot{
				Volumes: []types.VolumeRecord{
					{Name: "appdata", Mounted: true},
					{Name: "stale"},
				},
			})

			gomega.Expect(idx.VolumeInUse("appdata")).To(gomega.BeTrue())
			gomega.Expect(idx.VolumeInUse("stale")).To(gomega.BeFalse())
		})

		ginkgo.It("honors the container mount cross-reference", func() {
			idx := classify.Classify(&types.Snapshot{
				Volumes:        []types.VolumeRecord{{Name: "stale"}},
				MountedVolumes: map[string]struct{}{"stale": {}},
			})

			gomega.Expect(idx.VolumeInUse("stale")).To(gomega.BeTrue())
		})

		ginkgo.It("reports unknown volumes as in use", func() {
			idx := classify.Classify(&types.Snapshot{})

			gomega.Expect(idx.VolumeInUse("never-listed")).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("network usage", func() {
		ginkgo.It("marks attached and built-in networks in use", func() {
			idx := classify.Classify(&types.Snapshot{
				Networks: []types.NetworkRecord{
					{ID: customID, Name: "frontend", Attached: true},
					{ID: brID, Name: "bridge", Builtin: true},
				},
			})

			gomega.Expect(idx.NetworkInUse(customID)).To(gomega.BeTrue())
			gomega.Expect(idx.NetworkInUse(brID)).To(gomega.BeTrue())
		})

		ginkgo.It("marks detached custom networks unused", func() {
			idx := classify.Classify(&types.Snapshot{
				Networks: []types.NetworkRecord{{ID: customID, Name: "frontend"}},
			})

			gomega.Expect(idx.NetworkInUse(customID)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("build cache usage", func() {
		ginkgo.It("takes the engine's in-use flag verbatim", func() {
			idx := classify.Classify(&types.Snapshot{
				BuildCache: []types.BuildCacheRecord{
					{ID: "cache-1", InUse: true},
					{ID: "cache-2"},
				},
			})

			gomega.Expect(idx.CacheInUse("cache-1")).To(gomega.BeTrue())
			gomega.Expect(idx.CacheInUse("cache-2")).To(gomega.BeFalse())
		})

		ginkgo.It("reports unknown entries as in use", func() {
			idx := classify.Classify(&types.Snapshot{})

			gomega.Expect(idx.CacheInUse("cache-9")).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("anonymous volume names", func() {
		ginkgo.It("recognizes engine-generated hex names", func() {
			gomega.Expect(classify.AnonymousVolumeName(strings.Repeat("ab", 32))).
				To(gomega.BeTrue())
			gomega.Expect(classify.AnonymousVolumeName(strings.Repeat("0f", 16))).
				To(gomega.BeTrue())
		})

		ginkgo.It("rejects user-style names", func() {
			gomega.Expect(classify.AnonymousVolumeName("appdata")).To(gomega.BeFalse())
			gomega.Expect(classify.AnonymousVolumeName("")).To(gomega.BeFalse())
			gomega.Expect(classify.AnonymousVolumeName(strings.Repeat("g", 40))).
				To(gomega.BeFalse())
		})
	})
})
