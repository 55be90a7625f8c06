package models

import (
	"encoding/json"
	"fmt"
)

// Beat is an exact rational number of beats. The zero value is 0.
// Constructors and arithmetic keep values reduced with a positive
// denominator, so beats built through them compare equal with ==.
type Beat struct {
	num int64
	den int64
}

// Whole returns n whole beats.
func Whole(n int64) Beat {
	return Beat{num: n, den: 1}
}

// Fraction returns num/den beats. A zero denominator yields 0.
func Fraction(num, den int64) Beat {
	if den == 0 {
		return Whole(0)
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	return Beat{num: num / g, den: den / g}
}

// Num returns the reduced numerator.
func (b Beat) Num() int64 { return b.num }

// Den returns the reduced denominator.
func (b Beat) Den() int64 {
	if b.den == 0 {
		return 1
	}
	return b.den
}

func (b Beat) Add(o Beat) Beat {
	return Fraction(b.num*o.Den()+o.num*b.Den(), b.Den()*o.Den())
}

func (b Beat) Sub(o Beat) Beat {
	return Fraction(b.num*o.Den()-o.num*b.Den(), b.Den()*o.Den())
}

// MulInt scales the beat by an integer factor.
func (b Beat) MulInt(n int64) Beat {
	return Fraction(b.num*n, b.Den())
}

// Cmp returns -1, 0 or 1.
func (b Beat) Cmp(o Beat) int {
	l, r := b.num*o.Den(), o.num*b.Den()
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// IsZero reports whether the beat is 0.
func (b Beat) IsZero() bool { return b.num == 0 }

// Float64 converts the beat for consumers that work in floating time.
func (b Beat) Float64() float64 {
	return float64(b.num) / float64(b.Den())
}

// Ticks converts the beat to MIDI ticks at the given resolution, rounding
// to the nearest tick.
func (b Beat) Ticks(perBeat int64) int64 {
	n := b.num * perBeat
	d := b.Den()
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

func (b Beat) String() string {
	if b.Den() == 1 {
		return fmt.Sprintf("%d", b.num)
	}
	return fmt.Sprintf("%d/%d", b.num, b.Den())
}

// MarshalJSON writes the beat as a JSON number.
func (b Beat) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Float64())
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
