package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NormalizeAngle folds a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Quantize rounds v to the nearest multiple of step. A non-positive step
// returns v unchanged.
func Quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// ScalarProjection returns the signed length of delta along axis, that is
// |delta|·cos θ. A zero axis projects to zero.
func ScalarProjection(delta, axis v3.Vec) float64 {
	l := axis.Length()
	if l == 0 {
		return 0
	}
	return delta.Dot(axis) / l
}

// ClampMagnitude keeps the sign of d and raises |d| to at least min.
// Zero and NaN are treated as positive.
func ClampMagnitude(d, min float64) float64 {
	if math.IsNaN(d) {
		return min
	}
	if d < 0 {
		if -d < min {
			return -min
		}
		return d
	}
	if d < min {
		return min
	}
	return d
}

// ResizeAlong applies the resize rule along one axis. The signed distance
// from anchor to hit is measured by scalar projection onto axis, quantized to
// whole steps (at least one) when step > 0, and otherwise floored at min. The
// returned center lies half the new length from the anchor on the side the
// pointer is on, so dragging past the anchor flips the element.
func ResizeAlong(anchor, axis, hit v3.Vec, step, min float64) (center v3.Vec, length float64) {
	axis = axis.Normalize()
	d := ScalarProjection(hit.Sub(anchor), axis)
	sign := 1.0
	if d < 0 {
		sign = -1
	}
	mag := math.Abs(d)
	if math.IsNaN(mag) {
		mag = 0
	}
	if step > 0 {
		n := math.Round(mag / step)
		if n < 1 {
			n = 1
		}
		mag = n * step
	}
	if mag < min {
		mag = min
	}
	return anchor.Add(axis.MulScalar(sign * mag / 2)), mag
}
