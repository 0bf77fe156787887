package optimizer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// Delta is the change in node count for one operator type.
type Delta struct {
	Op     string `json:"op"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// Change returns After minus Before.
func (d Delta) Change() int { return d.After - d.Before }

// String formats the delta as "Op +N(before->after)", with an explicit sign.
func (d Delta) String() string {
	return fmt.Sprintf("%s %s(%d->%d)", d.Op, signed(d.Change()), d.Before, d.After)
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Diff compares two statistics snapshots. It returns one Delta for every
// operator type whose count changed, ordered by descending magnitude of the
// change; ties put growth before shrinkage and then sort by name.
// Equal snapshots yield an empty slice.
func Diff(before, after ir.Statistics) []Delta {
	var deltas []Delta
	for op, a := range after {
		if b := before[op]; a != b {
			deltas = append(deltas, Delta{Op: op, Before: b, After: a})
		}
	}
	for op, b := range before {
		if _, ok := after[op]; !ok && b != 0 {
			deltas = append(deltas, Delta{Op: op, Before: b})
		}
	}

	slices.SortFunc(deltas, func(x, y Delta) int {
		if c := abs(y.Change()) - abs(x.Change()); c != 0 {
			return c
		}
		if c := y.Change() - x.Change(); c != 0 {
			return c
		}
		return strings.Compare(x.Op, y.Op)
	})
	return deltas
}

// FormatDeltas renders deltas as a comma-separated list, or "no change".
func FormatDeltas(deltas []Delta) string {
	if len(deltas) == 0 {
		return "no change"
	}
	parts := make([]string, len(deltas))
	for i, d := range deltas {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
