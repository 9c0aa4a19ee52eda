// Package render formats a PrunePlan for presentation: an aligned text table
// or JSON, written to a stream or to a file. The planner returns fully
// structured data; everything display-related lives here.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pruneplan/pruneplan/pkg/types"
)

// tableMinWidth and tablePadding configure the tabwriter layout.
const (
	tableMinWidth = 1
	tablePadding  = 2
)

// Options configures plan rendering.
type Options struct {
	// JSON selects JSON output instead of the table.
	JSON bool
	// ShowName keeps the NAME column at system scope, where it is hidden
	// by default.
	ShowName bool
	// MinSize hides table rows (and JSON items) smaller than this many
	// bytes. Totals are unaffected; the threshold only trims the listing.
	MinSize int64
	// OutputPath writes the rendering to a file instead of the stream.
	OutputPath string
}

// Renderer writes prune plans. The filesystem is abstracted so tests can
// capture file output in memory.
type Renderer struct {
	Out  io.Writer
	Fs   afero.Fs
	Opts Options
}

// jsonPlan is the JSON document shape. Items carry their own kind tag, so
// the structure works for single-kind and system scopes alike.
type jsonPlan struct {
	Scope            string                `json:"scope"`
	Items            []types.PlanItem      `json:"items"`
	Subtotals        map[types.Kind]int64  `json:"subtotals"`
	ReclaimableBytes int64                 `json:"plan_reclaimable_bytes"`
	Degraded         []types.Kind          `json:"degraded,omitempty"`
}

// Render writes the plan in the configured format and destination.
func (r Renderer) Render(plan *types.PrunePlan) error {
	out := r.Out

	if r.Opts.OutputPath != "" {
		file, err := r.Fs.Create(r.Opts.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}

		defer func() {
			if err := file.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close output file")
			}
		}()

		out = file
	}

	if r.Opts.JSON {
		return r.renderJSON(out, plan)
	}

	return r.renderTable(out, plan)
}

func (r Renderer) renderJSON(out io.Writer, plan *types.PrunePlan) error {
	doc := jsonPlan{
		Scope:            plan.Scope,
		Items:            r.visibleItems(plan),
		Subtotals:        plan.Subtotals,
		ReclaimableBytes: plan.TotalReclaimable,
		Degraded:         plan.Degraded,
	}

	if doc.Items == nil {
		doc.Items = []types.PlanItem{}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	return nil
}

func (r Renderer) renderTable(out io.Writer, plan *types.PrunePlan) error {
	showName := plan.Scope != "system" || r.Opts.ShowName

	writer := tabwriter.NewWriter(out, tableMinWidth, 0, tablePadding, ' ', 0)

	headers := []string{"TYPE", "ID", "NAME", "SIZE", "INFO"}
	if !showName {
		headers = []string{"TYPE", "ID", "SIZE", "INFO"}
	}

	fmt.Fprintln(writer, strings.Join(headers, "\t"))

	for _, item := range r.visibleItems(plan) {
		cells := []string{
			kindLabel(item.Kind),
			item.ID,
			item.Name,
			sizeLabel(item.Size),
			item.Reason,
		}
		if !showName {
			cells = append(cells[:2], cells[3:]...)
		}

		fmt.Fprintln(writer, strings.Join(cells, "\t"))
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	for _, kind := range plan.Degraded {
		fmt.Fprintf(out, "\nWarning: %s could not be enumerated and are not included\n", kind)
	}

	fmt.Fprintf(out, "\nPlan Reclaimable Space: %s\n", sizeLabel(plan.TotalReclaimable))

	return nil
}

// visibleItems applies the min-size threshold. Unknown sizes always stay
// visible: hiding an object because its size is unknown would make the
// preview lie by omission.
func (r Renderer) visibleItems(plan *types.PrunePlan) []types.PlanItem {
	if r.Opts.MinSize <= 0 {
		return plan.Items
	}

	var items []types.PlanItem

	for _, item := range plan.Items {
		if item.Size == types.SizeUnknown || item.Size >= r.Opts.MinSize {
			items = append(items, item)
		}
	}

	return items
}

// kindLabel maps kinds to the singular display labels the table uses.
func kindLabel(kind types.Kind) string {
	switch kind {
	case types.KindContainers:
		return "Container"
	case types.KindImages:
		return "Image"
	case types.KindVolumes:
		return "Volume"
	case types.KindNetworks:
		return "Network"
	case types.KindBuildCache:
		return "BuildCache"
	}

	return string(kind)
}

func sizeLabel(size int64) string {
	if size == types.SizeUnknown {
		return "N/A"
	}

	if size == 0 {
		return "0B"
	}

	return units.HumanSize(float64(size))
}
