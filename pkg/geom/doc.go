// Package geom holds the pure geometry helpers used by the manipulation
// core: rays and planes, Euler rotation composition, angle normalization,
// clamping, and the quantized resize rule. Nothing in this package keeps
// state.
package geom
