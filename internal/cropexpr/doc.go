// Package cropexpr compiles cursor tracks into encoder crop expressions.
//
// The export filter graph cannot evaluate host code, so the follow behavior
// is synthesized as a bounded piecewise expression of the encode-time clock:
// the focal center is tracked with dead-zone following and idle recentering,
// downsampled to a fixed segment budget, and emitted as nested if(lt(t,..))
// interpolation terms the encoder evaluates per frame.
//
// The algorithm is parameter-compatible with package motion but deliberately
// distinct from its per-tick smoothing step.
package cropexpr
