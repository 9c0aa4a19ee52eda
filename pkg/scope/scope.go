// Package scope resolves a prune subcommand and its flags into the set of
// object kinds considered and the inclusion rule applied per kind.
//
// The mapping mirrors the Docker engine's documented prune behavior and is
// expressed as a data-driven rule table so new engine rules extend the table
// instead of restructuring control flow.
package scope

import (
	"errors"
	"fmt"

	"github.com/pruneplan/pruneplan/pkg/types"
)

// ErrUnsupportedScope indicates a flag combination the requested subcommand
// does not support. It is a caller-input error, reported before any
// inventory fetch is attempted.
var ErrUnsupportedScope = errors.New("unsupported scope")

// ImageRule selects which unused images a scope includes.
type ImageRule int

const (
	// ImagesDangling includes only untagged images.
	ImagesDangling ImageRule = iota
	// ImagesAllUnused includes every image no container references.
	ImagesAllUnused
)

// VolumeRule selects which unused volumes a scope includes.
type VolumeRule int

const (
	// VolumesAnonymous includes only unused volumes with engine-generated
	// names.
	VolumesAnonymous VolumeRule = iota
	// VolumesAllUnused includes unused named volumes as well.
	VolumesAllUnused
)

// Options carries the prune flags relevant to scope resolution.
type Options struct {
	// All widens the image rule (image, system) or the volume rule (volume).
	All bool
	// Volumes adds the volume kind at system scope.
	Volumes bool
	// Type narrows the considered kinds to exactly one, e.g. "image".
	// Only the system subcommand supports it.
	Type string
}

// Rules is the resolved scope: the kinds to consider, in processing order,
// and the per-kind inclusion rules.
type Rules struct {
	// Subcommand is the scope label carried into the plan.
	Subcommand string

	kinds  []types.Kind
	image  ImageRule
	volume VolumeRule
}

// Kinds returns the considered kinds in processing order.
func (r Rules) Kinds() []types.Kind {
	return r.kinds
}

// Image returns the image inclusion rule.
func (r Rules) Image() ImageRule {
	return r.image
}

// Volume returns the volume inclusion rule.
func (r Rules) Volume() VolumeRule {
	return r.volume
}

// Considers reports whether the scope includes the given kind.
func (r Rules) Considers(kind types.Kind) bool {
	for _, k := range r.kinds {
		if k == kind {
			return true
		}
	}

	return false
}

// ruleRow describes one subcommand's prune behavior. The rows mirror the
// engine's published semantics; kinds function values receive the parsed
// options so flag-dependent rows stay declarative.
type ruleRow struct {
	kinds func(opts Options) []types.Kind
	image func(opts Options) ImageRule
	// volume is nil for rows that never consider volumes.
	volume func(opts Options) VolumeRule
	// allowAll, allowVolumes and allowType gate which flags the
	// subcommand accepts.
	allowAll     bool
	allowVolumes bool
	allowType    bool
}

// ruleTable maps subcommands to their prune behavior:
//
//	container        -> stopped containers
//	network          -> unused non-default networks
//	image            -> dangling images; --all widens to all unused
//	volume           -> unused anonymous volumes; --all adds named ones
//	system           -> containers, networks, images (dangling unless
//	                    --all), build cache; --volumes adds anonymous
//	                    unused volumes (named volumes stay excluded at
//	                    system scope, as docker system prune does)
var ruleTable = map[string]ruleRow{
	"container": {
		kinds: staticKinds(types.KindContainers),
		image: danglingOnly,
	},
	"network": {
		kinds: staticKinds(types.KindNetworks),
		image: danglingOnly,
	},
	"image": {
		kinds:    staticKinds(types.KindImages),
		image:    allWhenRequested,
		allowAll: true,
	},
	"volume": {
		kinds:    staticKinds(types.KindVolumes),
		image:    danglingOnly,
		volume:   namedWhenRequested,
		allowAll: true,
	},
	"system": {
		kinds: func(opts Options) []types.Kind {
			kinds := []types.Kind{
				types.KindContainers,
				types.KindNetworks,
				types.KindImages,
			}
			if opts.Volumes {
				kinds = append(kinds, types.KindVolumes)
			}

			return append(kinds, types.KindBuildCache)
		},
		image: allWhenRequested,
		// docker system prune removes anonymous volumes only, with or
		// without --all.
		volume:       func(Options) VolumeRule { return VolumesAnonymous },
		allowAll:     true,
		allowVolumes: true,
		allowType:    true,
	},
}

// typeNames maps --type values to kinds.
var typeNames = map[string]types.Kind{
	"container":   types.KindContainers,
	"network":     types.KindNetworks,
	"image":       types.KindImages,
	"volume":      types.KindVolumes,
	"build-cache": types.KindBuildCache,
}

// Resolve maps a subcommand and its flags to the resolved scope rules. It
// fails with ErrUnsupportedScope for unknown subcommands, flags the
// subcommand does not accept, and unknown --type values.
func Resolve(subcommand string, opts Options) (Rules, error) {
	row, ok := ruleTable[subcommand]
	if !ok {
		return Rules{}, fmt.Errorf("%w: unknown subcommand %q", ErrUnsupportedScope, subcommand)
	}

	if opts.All && !row.allowAll {
		return Rules{}, fmt.Errorf("%w: --all is not valid for %q", ErrUnsupportedScope, subcommand)
	}

	if opts.Volumes && !row.allowVolumes {
		return Rules{}, fmt.Errorf("%w: --volumes is not valid for %q", ErrUnsupportedScope, subcommand)
	}

	if opts.Type != "" && !row.allowType {
		return Rules{}, fmt.Errorf("%w: --type is not valid for %q", ErrUnsupportedScope, subcommand)
	}

	rules := Rules{
		Subcommand: subcommand,
		kinds:      row.kinds(opts),
		image:      row.image(opts),
	}
	if row.volume != nil {
		rules.volume = row.volume(opts)
	}

	if opts.Type != "" {
		kind, ok := typeNames[opts.Type]
		if !ok {
			return Rules{}, fmt.Errorf("%w: unknown type %q", ErrUnsupportedScope, opts.Type)
		}

		// --type overrides the considered-kinds column outright; the
		// inclusion rules stay those of the subcommand's row.
		rules.kinds = []types.Kind{kind}
	}

	return rules, nil
}

func staticKinds(kinds ...types.Kind) func(Options) []types.Kind {
	return func(Options) []types.Kind { return kinds }
}

func danglingOnly(Options) ImageRule {
	return ImagesDangling
}

func allWhenRequested(opts Options) ImageRule {
	if opts.All {
		return ImagesAllUnused
	}

	return ImagesDangling
}

func namedWhenRequested(opts Options) VolumeRule {
	if opts.All {
		return VolumesAllUnused
	}

	return VolumesAnonymous
}
