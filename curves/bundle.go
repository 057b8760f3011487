package curves

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingCurve matches every *MissingCurveError.
	ErrMissingCurve = errors.New("missing curve")
	// ErrDuplicateCurve is returned when a name is bound twice in one bundle.
	ErrDuplicateCurve = errors.New("duplicate curve name")
)

// MissingCurveError reports a lookup of a name the bundle does not hold.
type MissingCurveError struct {
	Name string
}

func (e *MissingCurveError) Error() string {
	return fmt.Sprintf("missing curve %q", e.Name)
}

func (e *MissingCurveError) Is(target error) bool { return target == ErrMissingCurve }

// Handle is the resolved position of a curve name in a Layout.
type Handle int

// Layout is an ordered set of unique curve names resolved to handles.
//
// Resolving names once and binding many curve slices to the same layout keeps the
// calibration loop from rebuilding name indexes on every evaluation.
type Layout struct {
	names []string
	index map[string]Handle
}

// NewLayout fails on duplicate or empty names.
func NewLayout(names ...string) (*Layout, error) {
	l := &Layout{
		names: make([]string, 0, len(names)),
		index: make(map[string]Handle, len(names)),
	}
	for _, name := range names {
		if name == "" {
			return nil, errors.New("empty curve name")
		}
		if _, ok := l.index[name]; ok {
			return nil, errors.Wrapf(ErrDuplicateCurve, "%q", name)
		}
		l.index[name] = Handle(len(l.names))
		l.names = append(l.names, name)
	}
	return l, nil
}

// Handle resolves name.
func (l *Layout) Handle(name string) (Handle, bool) {
	h, ok := l.index[name]
	return h, ok
}

// Names returns the names in layout order.
func (l *Layout) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l *Layout) Len() int { return len(l.names) }

// Bind attaches one curve per name, in layout order. The slice is copied.
func (l *Layout) Bind(curves []YieldCurve) (*Bundle, error) {
	if len(curves) != len(l.names) {
		return nil, errors.Errorf("layout has %d names, got %d curves", len(l.names), len(curves))
	}
	for i, c := range curves {
		if c == nil {
			return nil, errors.Errorf("nil curve for %q", l.names[i])
		}
	}
	cp := make([]YieldCurve, len(curves))
	copy(cp, curves)
	return &Bundle{layout: l, curves: cp}, nil
}

// Bundle is an immutable, ordered name → curve map. Safe for concurrent readers.
type Bundle struct {
	layout *Layout
	curves []YieldCurve
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	l, _ := NewLayout()
	return &Bundle{layout: l}
}

// With returns a new bundle with name bound to c appended. The receiver is unchanged.
func (b *Bundle) With(name string, c YieldCurve) (*Bundle, error) {
	if c == nil {
		return nil, errors.Errorf("nil curve for %q", name)
	}
	l, err := NewLayout(append(b.Names(), name)...)
	if err != nil {
		return nil, err
	}
	return l.Bind(append(b.Curves(), c))
}

// MustWith is With for statically known, collision-free bundles such as test fixtures.
func (b *Bundle) MustWith(name string, c YieldCurve) *Bundle {
	out, err := b.With(name, c)
	if err != nil {
		panic(err)
	}
	return out
}

// Merge returns the disjoint union of b and other, b's curves first.
// A name present in both fails with ErrDuplicateCurve.
func (b *Bundle) Merge(other *Bundle) (*Bundle, error) {
	if other == nil {
		return b, nil
	}
	l, err := NewLayout(append(b.Names(), other.Names()...)...)
	if err != nil {
		return nil, errors.Wrap(err, "merge curve bundles")
	}
	return l.Bind(append(b.Curves(), other.Curves()...))
}

// Curve looks up name.
func (b *Bundle) Curve(name string) (YieldCurve, error) {
	h, ok := b.layout.Handle(name)
	if !ok {
		return nil, &MissingCurveError{Name: name}
	}
	return b.curves[h], nil
}

// At returns the curve bound to h.
func (b *Bundle) At(h Handle) YieldCurve { return b.curves[h] }

// Has reports whether name is bound.
func (b *Bundle) Has(name string) bool {
	_, ok := b.layout.Handle(name)
	return ok
}

// Names returns the curve names in bundle order.
func (b *Bundle) Names() []string { return b.layout.Names() }

// Curves returns the curves in bundle order.
func (b *Bundle) Curves() []YieldCurve {
	out := make([]YieldCurve, len(b.curves))
	copy(out, b.curves)
	return out
}

func (b *Bundle) Len() int { return len(b.curves) }

func (b *Bundle) Layout() *Layout { return b.layout }
