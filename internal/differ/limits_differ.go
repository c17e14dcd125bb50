package differ

import (
	"strconv"
	"strings"

	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LimitsDiff is the line diff between two renderings of a cluster's limits
type LimitsDiff struct {
	Diffs []diffmatchpatch.Diff
	Stats DiffStatistics
}

// IsIdentical reports whether nothing changed
func (d *LimitsDiff) IsIdentical() bool {
	return d.Stats.IsIdentical
}

// Text renders changed lines prefixed with "- " and "+ ". Unchanged lines are left out.
func (d *LimitsDiff) Text() string {
	var sb strings.Builder
	for _, diff := range d.Diffs {
		var prefix string
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// LimitsDiffer compares derived limits of a content cluster
type LimitsDiffer struct {
	processor       *DiffProcessor
	statsCalculator *DiffStatsCalculator
}

// NewLimitsDiffer creates a differ working on whole lines
func NewLimitsDiffer() *LimitsDiffer {
	return &LimitsDiffer{
		processor:       NewDiffProcessor(DefaultDiffConfig()),
		statsCalculator: NewDiffStatsCalculator(),
	}
}

// Diff compares previous with current. Pass the zero value as previous for a cluster seen
// for the first time.
func (ld *LimitsDiffer) Diff(previous, current limits.ClusterResourceLimits) *LimitsDiff {
	diffs := ld.processor.ProcessDiff(Render(previous), Render(current))
	return &LimitsDiff{
		Diffs: diffs,
		Stats: ld.statsCalculator.CalculateStats(diffs),
	}
}

// Render writes one "side.resource: value" line per set dimension in a fixed order
func Render(l limits.ClusterResourceLimits) string {
	var sb strings.Builder
	renderSide(&sb, "cluster_controller", l.ClusterController())
	renderSide(&sb, "content_node", l.ContentNode())
	return sb.String()
}

func renderSide(sb *strings.Builder, side string, l limits.ResourceLimits) {
	for _, r := range limits.Resources() {
		v, ok := l.Get(r)
		if !ok {
			continue
		}
		sb.WriteString(side)
		sb.WriteString(".")
		sb.WriteString(strings.ReplaceAll(r.String(), " ", "_"))
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		sb.WriteString("\n")
	}
}
