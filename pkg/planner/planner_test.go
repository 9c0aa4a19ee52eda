package planner_test

import (
	"errors"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/pruneplan/pruneplan/pkg/planner"
	"github.com/pruneplan/pruneplan/pkg/scope"
	"github.com/pruneplan/pruneplan/pkg/types"
)

// mustResolve resolves scope rules, failing the spec on error.
func mustResolve(subcommand string, opts scope.Options) scope.Rules {
	rules, err := scope.Resolve(subcommand, opts)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	return rules
}

var _ = ginkgo.Describe("the planner", func() {
	ginkgo.Describe("a system scope without flags", func() {
		var plan *types.PrunePlan

		ginkgo.BeforeEach(func() {
			plan = planner.Plan(newSnapshot(), mustResolve("system", scope.Options{}))
		})

		ginkgo.It("selects the stopped container, the custom network and the dangling image", func() {
			gomega.Expect(itemIDs(plan, types.KindContainers)).
				To(gomega.Equal([]string{stoppedContainerID.ShortID()}))
			gomega.Expect(itemIDs(plan, types.KindNetworks)).
				To(gomega.Equal([]string{customNetworkID.ShortID()}))
			gomega.Expect(itemIDs(plan, types.KindImages)).
				To(gomega.Equal([]string{danglingImageID.ShortID()}))
		})

		ginkgo.It("excludes all volumes", func() {
			gomega.Expect(plan.ItemsOfKind(types.KindVolumes)).To(gomega.BeEmpty())
			gomega.Expect(plan.Subtotals).NotTo(gomega.HaveKey(types.KindVolumes))
		})

		ginkgo.It("totals the dangling image plus the container writable layer", func() {
			gomega.Expect(plan.Subtotals[types.KindImages]).
				To(gomega.BeEquivalentTo(danglingImageSize))
			gomega.Expect(plan.Subtotals[types.KindContainers]).
				To(gomega.BeEquivalentTo(stoppedContainerSize))
			gomega.Expect(plan.TotalReclaimable).
				To(gomega.BeEquivalentTo(danglingImageSize + stoppedContainerSize))
		})
	})

	ginkgo.Describe("a system scope with --all and --volumes", func() {
		var plan *types.PrunePlan

		ginkgo.BeforeEach(func() {
			plan = planner.Plan(
				newSnapshot(),
				mustResolve("system", scope.Options{All: true, Volumes: true}),
			)
		})

		ginkgo.It("additionally selects the unreferenced tagged image", func() {
			gomega.Expect(itemIDs(plan, types.KindImages)).To(gomega.Equal([]string{
				danglingImageID.ShortID(),
				taggedImageID.ShortID(),
			}))
		})

		ginkgo.It("selects only the anonymous volume at system scope", func() {
			gomega.Expect(itemIDs(plan, types.KindVolumes)).
				To(gomega.Equal([]string{anonVolumeName}))
		})

		ginkgo.It("counts the shared layer once across both selected images", func() {
			expected := int64(danglingImageSize + taggedImageSize - sharedLayerSize)
			gomega.Expect(plan.Subtotals[types.KindImages]).To(gomega.Equal(expected))
		})

		ginkgo.It("totals images, container and anonymous volume", func() {
			expected := int64(danglingImageSize+taggedImageSize-sharedLayerSize) +
				stoppedContainerSize + anonVolumeSize
			gomega.Expect(plan.TotalReclaimable).To(gomega.Equal(expected))
		})
	})

	ginkgo.Describe("structural exclusions", func() {
		scopes := []struct {
			subcommand string
			opts       scope.Options
		}{
			{"container", scope.Options{}},
			{"network", scope.Options{}},
			{"image", scope.Options{}},
			{"image", scope.Options{All: true}},
			{"volume", scope.Options{}},
			{"volume", scope.Options{All: true}},
			{"system", scope.Options{}},
			{"system", scope.Options{All: true, Volumes: true}},
		}

		ginkgo.It("never selects a running container in any scope", func() {
			for _, tc := range scopes {
				plan := planner.Plan(newSnapshot(), mustResolve(tc.subcommand, tc.opts))
				gomega.Expect(itemIDs(plan, types.KindContainers)).
					NotTo(gomega.ContainElement(runningContainerID.ShortID()),
						"scope %s %+v", tc.subcommand, tc.opts)
			}
		})

		ginkgo.It("never selects a built-in default network in any scope", func() {
			for _, tc := range scopes {
				plan := planner.Plan(newSnapshot(), mustResolve(tc.subcommand, tc.opts))
				gomega.Expect(itemIDs(plan, types.KindNetworks)).
					NotTo(gomega.ContainElement(defaultNetworkID.ShortID()),
						"scope %s %+v", tc.subcommand, tc.opts)
			}
		})
	})

	ginkgo.Describe("image scope", func() {
		ginkgo.It("selects a subset of the --all selection without the flag", func() {
			snap := newSnapshot()
			dangling := planner.Plan(snap, mustResolve("image", scope.Options{}))
			all := planner.Plan(snap, mustResolve("image", scope.Options{All: true}))

			for _, id := range itemIDs(dangling, types.KindImages) {
				gomega.Expect(itemIDs(all, types.KindImages)).To(gomega.ContainElement(id))
			}

			gomega.Expect(len(all.ItemsOfKind(types.KindImages))).
				To(gomega.BeNumerically(">=", len(dangling.ItemsOfKind(types.KindImages))))
		})

		ginkgo.It("never selects an image referenced by any container", func() {
			plan := planner.Plan(newSnapshot(), mustResolve("image", scope.Options{All: true}))
			gomega.Expect(itemIDs(plan, types.KindImages)).
				NotTo(gomega.ContainElement(runningImageID.ShortID()))
		})
	})

	ginkgo.Describe("volume scope", func() {
		ginkgo.It("selects only anonymous volumes without --all", func() {
			plan := planner.Plan(newSnapshot(), mustResolve("volume", scope.Options{}))
			gomega.Expect(itemIDs(plan, types.KindVolumes)).
				To(gomega.Equal([]string{anonVolumeName}))
		})

		ginkgo.It("adds named volumes with --all", func() {
			plan := planner.Plan(newSnapshot(), mustResolve("volume", scope.Options{All: true}))
			gomega.Expect(itemIDs(plan, types.KindVolumes)).
				To(gomega.Equal([]string{anonVolumeName, "appdata"}))
		})

		ginkgo.It("excludes mounted volumes", func() {
			snap := newSnapshot()
			snap.MountedVolumes[anonVolumeName] = struct{}{}

			plan := planner.Plan(snap, mustResolve("volume", scope.Options{All: true}))
			gomega.Expect(itemIDs(plan, types.KindVolumes)).
				To(gomega.Equal([]string{"appdata"}))
		})
	})

	ginkgo.Describe("degraded kinds", func() {
		ginkgo.It("keeps the other kinds when the volume listing failed", func() {
			snap := newSnapshot()
			snap.Errs[types.KindVolumes] = errors.New("daemon timeout")

			plan := planner.Plan(
				snap,
				mustResolve("system", scope.Options{Volumes: true}),
			)

			gomega.Expect(plan.Degraded).To(gomega.Equal([]types.Kind{types.KindVolumes}))
			gomega.Expect(plan.IsDegraded(types.KindVolumes)).To(gomega.BeTrue())
			gomega.Expect(plan.ItemsOfKind(types.KindVolumes)).To(gomega.BeEmpty())
			gomega.Expect(plan.ItemsOfKind(types.KindContainers)).NotTo(gomega.BeEmpty())
			gomega.Expect(plan.ItemsOfKind(types.KindImages)).NotTo(gomega.BeEmpty())
			gomega.Expect(plan.ItemsOfKind(types.KindNetworks)).NotTo(gomega.BeEmpty())
			gomega.Expect(plan.Subtotals).NotTo(gomega.HaveKey(types.KindVolumes))
		})
	})

	ginkgo.Describe("idempotence", func() {
		ginkgo.It("yields identical plans for repeated runs over one snapshot", func() {
			snap := newSnapshot()
			rules := mustResolve("system", scope.Options{All: true, Volumes: true})

			first := planner.Plan(snap, rules)
			second := planner.Plan(snap, rules)

			gomega.Expect(second).To(gomega.Equal(first))
		})
	})

	ginkgo.Describe("selection reasons", func() {
		ginkgo.It("labels dangling and unused images distinctly", func() {
			plan := planner.Plan(newSnapshot(), mustResolve("image", scope.Options{All: true}))

			items := plan.ItemsOfKind(types.KindImages)
			gomega.Expect(items).To(gomega.HaveLen(2))
			gomega.Expect(items[0].Reason).To(gomega.Equal("Dangling image"))
			gomega.Expect(items[0].Name).To(gomega.Equal("<none>"))
			gomega.Expect(items[1].Reason).To(gomega.Equal("Unused image (no containers)"))
			gomega.Expect(items[1].Name).To(gomega.Equal("app:latest"))
		})

		ginkgo.It("carries the container status line", func() {
			plan := planner.Plan(newSnapshot(), mustResolve("container", scope.Options{}))

			items := plan.ItemsOfKind(types.KindContainers)
			gomega.Expect(items).To(gomega.HaveLen(1))
			gomega.Expect(items[0].Reason).To(gomega.Equal("Status: Exited (0) 2 days ago"))
			gomega.Expect(items[0].Name).To(gomega.Equal("old-task"))
		})
	})
})
