// Package random provides reproducible random number streams and the distributions the
// simulation draws from.
//
// A StreamProvider derives every named stream from one master seed, so adding a stream
// never perturbs the others. Each stream is divided into substreams; replications move to
// the next substream so that they use independent numbers while remaining reproducible.
// Distributions are sampled by inversion from a single stream uniform, which keeps
// antithetic variates and common random numbers exact.
package random
