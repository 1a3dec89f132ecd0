// Package fit recovers the initial condition and decay coefficient of a
// leaky integrator from a sampled trajectory.
//
// Every epoch re-simulates the candidate trajectory on an [autodiff.Tape],
// scores it with the sum of squared errors against the target, and applies
// one Adam update to both parameters. Training runs for a fixed number of
// epochs; there is no early stop and no divergence guard.
package fit
