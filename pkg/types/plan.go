package types

// Kind identifies one prunable Docker object kind.
type Kind string

// The prunable object kinds, in the order the system scope processes them.
const (
	KindContainers Kind = "containers"
	KindNetworks   Kind = "networks"
	KindImages     Kind = "images"
	KindVolumes    Kind = "volumes"
	KindBuildCache Kind = "build-cache"
)

// AllKinds lists every prunable kind in canonical processing order.
var AllKinds = []Kind{
	KindContainers,
	KindNetworks,
	KindImages,
	KindVolumes,
	KindBuildCache,
}

// PlanItem is one object selected for removal in a PrunePlan.
type PlanItem struct {
	Kind Kind `json:"type"`
	// ID is the object's short identifier (volume names are used verbatim).
	ID string `json:"id"`
	// Name is the object's human label: container name, image tags, volume
	// or network name, cache description.
	Name string `json:"name"`
	// Size is the object's own size in bytes, before any de-duplication,
	// or SizeUnknown. Per-kind subtotals may be smaller than the sum of
	// item sizes because shared data is counted once.
	Size int64 `json:"size"`
	// Reason states why the object is selected, e.g. "Dangling image".
	Reason string `json:"reason"`
}

// PrunePlan is the terminal artifact of one preview run: the objects the
// corresponding docker prune invocation would remove, with de-duplicated
// space estimates. It is fully structured so the presentation layer can
// render it as a table or as JSON without further queries.
type PrunePlan struct {
	// Scope is the subcommand label the plan was built for.
	Scope string `json:"scope"`
	// Items lists the selected objects grouped by kind, in inventory order
	// within each kind. An object appears at most once.
	Items []PlanItem `json:"items"`
	// Subtotals holds per-kind reclaimable bytes, de-duplicated within the
	// kind. Kinds with no selected objects are present with a zero value
	// when they were in scope.
	Subtotals map[Kind]int64 `json:"subtotals"`
	// TotalReclaimable is the sum of the per-kind subtotals.
	TotalReclaimable int64 `json:"total_reclaimable_bytes"`
	// Degraded lists kinds that were in scope but could not be enumerated.
	// Their objects are absent from Items and contribute nothing to totals.
	Degraded []Kind `json:"degraded,omitempty"`
}

// ItemsOfKind returns the plan's items of one kind, preserving order.
func (p *PrunePlan) ItemsOfKind(kind Kind) []PlanItem {
	var items []PlanItem

	for _, item := range p.Items {
		if item.Kind == kind {
			items = append(items, item)
		}
	}

	return items
}

// IsDegraded reports whether the given kind was in scope but unavailable.
func (p *PrunePlan) IsDegraded(kind Kind) bool {
	for _, k := range p.Degraded {
		if k == kind {
			return true
		}
	}

	return false
}
