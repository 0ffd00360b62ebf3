// Package billing turns a parking interval into a charge.
package billing

import (
	"errors"
	"time"
)

// Rate is the billing configuration: every started Unit costs PerUnit.
type Rate struct {
	PerUnit Money
	Unit    time.Duration
}

// DefaultRate is 105.99 per started ten minutes.
var DefaultRate = Rate{PerUnit: 10599, Unit: 10 * time.Minute}

func (r Rate) Validate() error {
	if r.PerUnit <= 0 {
		return errors.New("billing: rate per unit must be positive")
	}
	if r.Unit <= 0 {
		return errors.New("billing: unit must be positive")
	}
	return nil
}

type Engine struct {
	rate Rate
}

func NewEngine(r Rate) (*Engine, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rate: r}, nil
}

func (e *Engine) Rate() Rate { return e.rate }

// Charge bills the interval from ref to target. At least one unit is always
// charged, including when target is not after ref.
func (e *Engine) Charge(ref, target time.Time) Money {
	delta := target.Sub(ref)
	if delta <= 0 {
		return e.rate.PerUnit
	}
	units := int64(delta / e.rate.Unit)
	if delta%e.rate.Unit != 0 {
		units++
	}
	if units == 0 {
		return e.rate.PerUnit
	}
	return Money(units) * e.rate.PerUnit
}

// Units reports how many started units the interval covers.
func (e *Engine) Units(ref, target time.Time) int64 {
	return int64(e.Charge(ref, target) / e.rate.PerUnit)
}
