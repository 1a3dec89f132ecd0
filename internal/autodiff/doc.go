// Package autodiff records scalar arithmetic on a tape and computes
// reverse-mode gradients of a scalar output with respect to [Param] leaves.
//
// A [Tape] is rebuilt for every evaluation: call [Tape.Reset], bind the
// parameters with [Tape.Leaf], compose the expression, then call
// [Tape.Backward] on the scalar result. Gradients accumulate into
// [Param.Grad] until cleared with [Param.ZeroGrad].
package autodiff
