// Package grid resolves a declared search space into a finite Cartesian
// grid of hyperparameter assignments. The grid is index-addressable: a cell
// is computed from its linear index by mixed-radix decomposition, so the
// full product is never materialized.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gridsweep/gridsweep/internal/config"
)

// InvalidSearchSpaceError reports a malformed axis or step count. It is
// fatal and surfaced before any pipeline execution.
type InvalidSearchSpaceError struct {
	Name   string
	Reason string
}

func (e *InvalidSearchSpaceError) Error() string {
	return fmt.Sprintf("invalid search space: hyperparameter %q: %s", e.Name, e.Reason)
}

// Axis is one resolved hyperparameter: its discrete values in sweep order
// plus the stage binding carried over from the declaration.
type Axis struct {
	Name   string
	Stage  string
	Create bool
	Values []any
}

// Assignment is one grid cell: a concrete value per hyperparameter.
type Assignment map[string]any

// Grid is the Cartesian product of all resolved axes, in declaration order.
// The last-declared axis varies fastest.
type Grid struct {
	axes []Axis
	size int
}

// Expand resolves every hyperparameter to exactly steps[name] values and
// returns the resulting grid. A declaration with no hyperparameters yields
// a single empty assignment (the template itself, unmodified).
func Expand(space []config.Hyperparameter, steps map[string]int) (*Grid, error) {
	axes := make([]Axis, 0, len(space))
	size := 1
	for _, hp := range space {
		axis, err := resolveAxis(hp, steps[hp.Name])
		if err != nil {
			return nil, err
		}
		axes = append(axes, axis)
		size *= len(axis.Values)
	}
	return &Grid{axes: axes, size: size}, nil
}

func resolveAxis(hp config.Hyperparameter, n int) (Axis, error) {
	axis := Axis{Name: hp.Name, Stage: hp.Stage, Create: hp.Create}
	if n <= 0 {
		return axis, &InvalidSearchSpaceError{Name: hp.Name, Reason: fmt.Sprintf("step count %d must be positive", n)}
	}
	if len(hp.Values) > 0 {
		if n > len(hp.Values) {
			return axis, &InvalidSearchSpaceError{
				Name:   hp.Name,
				Reason: fmt.Sprintf("step count %d exceeds %d declared values", n, len(hp.Values)),
			}
		}
		axis.Values = sampleSet(hp.Values, n)
		return axis, nil
	}
	if hp.Min == nil || hp.Max == nil {
		return axis, &InvalidSearchSpaceError{Name: hp.Name, Reason: "no values and no bounds declared"}
	}
	axis.Values = sampleRange(*hp.Min, *hp.Max, n)
	return axis, nil
}

// sampleSet picks n evenly spaced members of a discrete value set,
// endpoints inclusive. n == len(values) returns the whole set.
func sampleSet(values []any, n int) []any {
	if n == len(values) {
		out := make([]any, n)
		copy(out, values)
		return out
	}
	out := make([]any, n)
	if n == 1 {
		out[0] = values[0]
		return out
	}
	for i := 0; i < n; i++ {
		idx := int(math.Round(float64(i) * float64(len(values)-1) / float64(n-1)))
		out[i] = values[idx]
	}
	return out
}

// sampleRange spaces n points uniformly across [min, max], endpoints
// inclusive. A single step resolves to the lower bound.
func sampleRange(min, max float64, n int) []any {
	out := make([]any, n)
	if n == 1 {
		out[0] = min
		return out
	}
	step := (max - min) / float64(n-1)
	for i := 0; i < n; i++ {
		out[i] = min + float64(i)*step
	}
	out[n-1] = max
	return out
}

// Size returns the number of cells in the grid.
func (g *Grid) Size() int { return g.size }

// Axes returns the resolved axes in declaration order.
func (g *Grid) Axes() []Axis { return g.axes }

// At decodes linear index i into its assignment. The first-declared axis
// varies slowest; the last varies fastest. Panics if i is out of range.
func (g *Grid) At(i int) Assignment {
	if i < 0 || i >= g.size {
		panic(fmt.Sprintf("grid index %d out of range [0,%d)", i, g.size))
	}
	asn := make(Assignment, len(g.axes))
	for k := len(g.axes) - 1; k >= 0; k-- {
		axis := g.axes[k]
		asn[axis.Name] = axis.Values[i%len(axis.Values)]
		i /= len(axis.Values)
	}
	return asn
}

// Label canonicalizes an assignment into "name=value" pairs joined by
// commas, ordered by axis declaration order. Numeric values are rounded to
// six decimal places, so equal assignments always produce identical labels.
func (g *Grid) Label(asn Assignment) string {
	parts := make([]string, 0, len(g.axes))
	for _, axis := range g.axes {
		value, ok := asn[axis.Name]
		if !ok {
			continue
		}
		parts = append(parts, axis.Name+"="+formatValue(value))
	}
	return strings.Join(parts, ",")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(math.Round(val*1e6)/1e6, 'g', -1, 64)
	case float32:
		return formatValue(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
