// Package instrument defines the closed set of interest-rate derivatives the engine
// values. Every time is a year fraction from the valuation date and every curve is
// referenced by its name in a curves.Bundle.
package instrument

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/meenmo/mcurve/curves"
)

var (
	ErrNilDerivative = errors.New("nil derivative")
	ErrNilBundle     = errors.New("nil curve bundle")
	// ErrUnsupported matches every *UnsupportedError.
	ErrUnsupported = errors.New("unsupported derivative")
)

// Derivative is implemented only by the variants in this package.
type Derivative interface {
	// CurveNames lists the distinct curves the derivative depends on, in first-use order.
	CurveNames() []string
	derivative()
}

// Payment is a single dated flow: PaymentFixed, CouponFixed, CouponIbor or CouponCMS.
type Payment interface {
	Derivative
	PaymentTime() float64
	FundingCurveName() string
}

// UnsupportedError is returned by a calculator that has no rule for a variant.
type UnsupportedError struct {
	Calculator string
	Derivative string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Calculator, e.Derivative)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// Unsupported builds the error a calculator returns for d.
func Unsupported(calculator string, d Derivative) error {
	return &UnsupportedError{Calculator: calculator, Derivative: Kind(d)}
}

// IsNil reports whether d is nil or a nil pointer to a variant.
func IsNil(d Derivative) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Kind names the variant of d.
func Kind(d Derivative) string {
	switch d.(type) {
	case *Cash:
		return "Cash"
	case *ForwardRateAgreement:
		return "ForwardRateAgreement"
	case *InterestRateFuture:
		return "InterestRateFuture"
	case *SwapFixedIbor:
		return "SwapFixedIbor"
	case *SwapFixedOIS:
		return "SwapFixedOIS"
	case *TenorSwap:
		return "TenorSwap"
	case *Bond:
		return "Bond"
	case *PaymentFixed:
		return "PaymentFixed"
	case *CouponFixed:
		return "CouponFixed"
	case *CouponIbor:
		return "CouponIbor"
	case *CouponCMS:
		return "CouponCMS"
	case *Annuity:
		return "Annuity"
	}
	return fmt.Sprintf("%T", d)
}

// Visitor computes a T for every variant. Implementations that cannot handle a
// variant return Unsupported.
type Visitor[T any] interface {
	VisitCash(d *Cash, b *curves.Bundle) (T, error)
	VisitForwardRateAgreement(d *ForwardRateAgreement, b *curves.Bundle) (T, error)
	VisitInterestRateFuture(d *InterestRateFuture, b *curves.Bundle) (T, error)
	VisitSwapFixedIbor(d *SwapFixedIbor, b *curves.Bundle) (T, error)
	VisitSwapFixedOIS(d *SwapFixedOIS, b *curves.Bundle) (T, error)
	VisitTenorSwap(d *TenorSwap, b *curves.Bundle) (T, error)
	VisitBond(d *Bond, b *curves.Bundle) (T, error)
	VisitPaymentFixed(d *PaymentFixed, b *curves.Bundle) (T, error)
	VisitCouponFixed(d *CouponFixed, b *curves.Bundle) (T, error)
	VisitCouponIbor(d *CouponIbor, b *curves.Bundle) (T, error)
	VisitCouponCMS(d *CouponCMS, b *curves.Bundle) (T, error)
	VisitAnnuity(d *Annuity, b *curves.Bundle) (T, error)
}

// Accept dispatches d to the matching method of v.
func Accept[T any](d Derivative, v Visitor[T], b *curves.Bundle) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBundle
	}
	switch x := d.(type) {
	case *Cash:
		return call(x, b, v.VisitCash)
	case *ForwardRateAgreement:
		return call(x, b, v.VisitForwardRateAgreement)
	case *InterestRateFuture:
		return call(x, b, v.VisitInterestRateFuture)
	case *SwapFixedIbor:
		return call(x, b, v.VisitSwapFixedIbor)
	case *SwapFixedOIS:
		return call(x, b, v.VisitSwapFixedOIS)
	case *TenorSwap:
		return call(x, b, v.VisitTenorSwap)
	case *Bond:
		return call(x, b, v.VisitBond)
	case *PaymentFixed:
		return call(x, b, v.VisitPaymentFixed)
	case *CouponFixed:
		return call(x, b, v.VisitCouponFixed)
	case *CouponIbor:
		return call(x, b, v.VisitCouponIbor)
	case *CouponCMS:
		return call(x, b, v.VisitCouponCMS)
	case *Annuity:
		return call(x, b, v.VisitAnnuity)
	case nil:
		return zero, ErrNilDerivative
	}
	return zero, errors.Errorf("unknown derivative %T", d)
}

func call[T, D any](x *D, b *curves.Bundle, visit func(*D, *curves.Bundle) (T, error)) (T, error) {
	if x == nil {
		var zero T
		return zero, ErrNilDerivative
	}
	return visit(x, b)
}

// curveSet collects names in first-use order without duplicates.
type curveSet []string

func (s curveSet) add(names ...string) curveSet {
	for _, n := range names {
		found := false
		for _, have := range s {
			if have == n {
				found = true
				break
			}
		}
		if !found {
			s = append(s, n)
		}
	}
	return s
}
