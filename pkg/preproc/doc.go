// Package preproc describes fMRI preprocessing pipelines and resolves them
// into executable plans.
//
// A pipeline is an ordered list of steps picked from a fixed set: spatial
// smoothing, temporal filtering and timecourse normalization. The order in
// which the steps are listed is the order in which they run, each step
// consuming the image produced by the one before it. Pipelines are usually
// written as a YAML mapping, which decodes with its key order preserved.
//
// Assembling a pipeline validates every step up front, so a misspelled
// step name or a malformed parameter is reported before any image is
// touched. The assembled plan also carries a token that encodes the steps
// and their parameters, which downstream code appends to output file names
// to keep results from different pipelines apart.
package preproc
