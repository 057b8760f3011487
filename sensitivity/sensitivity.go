// Package sensitivity holds the continuous curve-sensitivity value type shared by
// the pricing calculators, the calibration Jacobian and the risk calculators.
package sensitivity

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// TimeTolerance is the distance below which two sensitivity times are treated as equal by Cleaned.
const TimeTolerance = 1e-10

// ErrNilMap is returned when a sensitivity is built from a nil map.
var ErrNilMap = errors.New("nil sensitivity map")

// Point is the sensitivity of a value to the zero rate of one curve at Time.
type Point struct {
	Time  float64
	Value float64
}

// CurveSensitivity maps curve names to lists of (time, ∂value/∂rate) points.
//
// Lists are unordered and may hold several points at the same time until Cleaned is called.
// A CurveSensitivity is never mutated after construction.
type CurveSensitivity struct {
	m map[string][]Point
}

// New copies m into a CurveSensitivity. A nil map is rejected; an empty one is fine.
func New(m map[string][]Point) (CurveSensitivity, error) {
	if m == nil {
		return CurveSensitivity{}, ErrNilMap
	}
	return CurveSensitivity{m: copyMap(m)}, nil
}

// Of builds a sensitivity to a single curve.
func Of(curve string, points ...Point) CurveSensitivity {
	pts := make([]Point, len(points))
	copy(pts, points)
	return CurveSensitivity{m: map[string][]Point{curve: pts}}
}

// Empty returns a sensitivity with no curves.
func Empty() CurveSensitivity {
	return CurveSensitivity{m: map[string][]Point{}}
}

func copyMap(m map[string][]Point) map[string][]Point {
	out := make(map[string][]Point, len(m))
	for name, pts := range m {
		cp := make([]Point, len(pts))
		copy(cp, pts)
		out[name] = cp
	}
	return out
}

// Plus concatenates the point lists curve by curve. Points at equal times are not merged.
func (s CurveSensitivity) Plus(other CurveSensitivity) CurveSensitivity {
	out := copyMap(s.m)
	for name, pts := range other.m {
		out[name] = append(out[name], pts...)
	}
	return CurveSensitivity{m: out}
}

// MultipliedBy scales every value by factor.
func (s CurveSensitivity) MultipliedBy(factor float64) CurveSensitivity {
	out := make(map[string][]Point, len(s.m))
	for name, pts := range s.m {
		scaled := make([]Point, len(pts))
		for i, p := range pts {
			scaled[i] = Point{Time: p.Time, Value: p.Value * factor}
		}
		out[name] = scaled
	}
	return CurveSensitivity{m: out}
}

// Cleaned sorts each curve's points by time and sums points whose times are within TimeTolerance.
func (s CurveSensitivity) Cleaned() CurveSensitivity {
	out := make(map[string][]Point, len(s.m))
	for name, pts := range s.m {
		sorted := make([]Point, len(pts))
		copy(sorted, pts)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

		merged := make([]Point, 0, len(sorted))
		for _, p := range sorted {
			last := len(merged) - 1
			if last >= 0 && math.Abs(p.Time-merged[last].Time) < TimeTolerance {
				merged[last].Value += p.Value
				continue
			}
			merged = append(merged, p)
		}
		out[name] = merged
	}
	return CurveSensitivity{m: out}
}

// CurveNames returns the curve names in lexical order.
func (s CurveSensitivity) CurveNames() []string {
	names := make([]string, 0, len(s.m))
	for name := range s.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Points returns a copy of the points on curve, or nil if the curve is absent.
func (s CurveSensitivity) Points(curve string) []Point {
	pts, ok := s.m[curve]
	if !ok {
		return nil
	}
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return cp
}

// Map returns a deep copy of the underlying map.
func (s CurveSensitivity) Map() map[string][]Point {
	return copyMap(s.m)
}

// IsEmpty reports whether no curve carries any point.
func (s CurveSensitivity) IsEmpty() bool {
	for _, pts := range s.m {
		if len(pts) > 0 {
			return false
		}
	}
	return true
}

// Total returns the sum of all values on curve.
func (s CurveSensitivity) Total(curve string) float64 {
	total := 0.0
	for _, p := range s.m[curve] {
		total += p.Value
	}
	return total
}

// Equal compares the cleaned forms of both sensitivities within tol.
// A curve present on one side only must have no points left after cleaning.
func (s CurveSensitivity) Equal(other CurveSensitivity, tol float64) bool {
	a := s.Cleaned().m
	b := other.Cleaned().m
	for name, pa := range a {
		pb := b[name]
		if len(pa) != len(pb) {
			return false
		}
		for i := range pa {
			if math.Abs(pa[i].Time-pb[i].Time) > tol || math.Abs(pa[i].Value-pb[i].Value) > tol {
				return false
			}
		}
	}
	for name, pb := range b {
		if _, ok := a[name]; !ok && len(pb) > 0 {
			return false
		}
	}
	return true
}
