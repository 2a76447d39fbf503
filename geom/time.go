// Package geom provides the coordinate, rectangle, and rational-time
// primitives shared by every stage of the rally-detection pipeline.
package geom

import "fmt"

// Time is a rational number of seconds, Num/Den. Using exact rationals for
// frame timestamps keeps monotonicity comparisons free of floating-point
// drift when the decoder's presentation timestamps come from a fixed frame
// rate (e.g. 30000/1001).
type Time struct {
	Num int64
	Den int64
}

// NewTime constructs a Time, normalizing a zero or negative denominator to 1.
func NewTime(num, den int64) Time {
	if den <= 0 {
		den = 1
	}
	return Time{Num: num, Den: den}
}

// FromSeconds builds a Time from a float64 second count at the given
// denominator, truncating toward zero. Used by mocks, tests, Add, and the
// pipeline's conversion of rally event times; production decoders supply
// exact rationals directly.
func FromSeconds(seconds float64, den int64) Time {
	if den <= 0 {
		den = 1_000_000
	}
	return Time{Num: int64(seconds * float64(den)), Den: den}
}

// Seconds returns the time as a float64 number of seconds.
func (t Time) Seconds() float64 {
	if t.Den == 0 {
		return 0
	}
	return float64(t.Num) / float64(t.Den)
}

// Less reports whether t is strictly before u, using cross-multiplication
// to avoid floating point comparisons when denominators match or divide
// evenly.
func (t Time) Less(u Time) bool {
	return t.Num*u.Den < u.Num*t.Den
}

// Equal reports whether t and u denote the same instant.
func (t Time) Equal(u Time) bool {
	return t.Num*u.Den == u.Num*t.Den
}

// Sub returns t - u as a float64 second delta. Exact rational subtraction is
// not attempted here because denominators across frames need not agree
// (e.g. after a scene cut); double precision is the fallback.
func (t Time) Sub(u Time) float64 {
	return t.Seconds() - u.Seconds()
}

// Add returns a new Time offset by the given number of seconds, sharing t's
// denominator for display purposes.
func (t Time) Add(seconds float64) Time {
	return FromSeconds(t.Seconds()+seconds, t.Den)
}

func (t Time) String() string {
	return fmt.Sprintf("%.4fs", t.Seconds())
}
