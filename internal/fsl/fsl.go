// Package fsl builds and runs FSL command line invocations.
package fsl

import (
	"fmt"
	"math"
	"strconv"
)

// Probes carries the per-image values read from an input series before
// the pipeline runs.
type Probes struct {
	// TR is the repetition time in seconds.
	TR float64
	// Median is the median intensity within the brain mask.
	Median float64
}

// SusanSigma converts a smoothing kernel FWHM in millimetres into the
// gaussian sigma susan expects.
func SusanSigma(fwhmMM float64) float64 {
	return fwhmMM / math.Sqrt(8*math.Log(2))
}

// BrightnessThreshold derives the susan brightness threshold from the
// median intensity within the brain mask.
func BrightnessThreshold(median float64) float64 {
	return 0.75 * median
}

// FormatValue renders a number the way FSL command lines expect.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 10, 64)
}

// TemporalFilterArgs returns the -bptf operation for fslmaths. Cutoffs
// are in seconds and converted into volumes using the repetition time; a
// disabled side is passed as -1.
func TemporalFilterArgs(highpassSec, lowpassSec, tr float64) string {
	return fmt.Sprintf("-bptf %s %s", bptfSigma(highpassSec, tr), bptfSigma(lowpassSec, tr))
}

func bptfSigma(cutoffSec, tr float64) string {
	if cutoffSec <= 0 {
		return "-1"
	}

	return FormatValue(cutoffSec / (2 * tr))
}
