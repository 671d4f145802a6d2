package preproc

import (
	"strconv"
	"strings"
)

// Token returns the filename fragment this step contributes to the output
// descriptor, e.g. "5mm" for smoothing with a 5 mm kernel, "100sNone" for
// a highpass filter with a 100 s cutoff and no lowpass, or "Zscore" for
// normalisation.
func (st Step) Token() string {
	switch st.Name {
	case SpatialSmoothing:
		return formatParam(st.FWHM) + "mm"
	case TemporalFiltering:
		return cutoffToken(st.Highpass) + cutoffToken(st.Lowpass)
	case TimecourseNormalization:
		return string(st.Method)
	}

	return ""
}

// Token concatenates the fragments of all steps in execution order. The
// result encodes the full pipeline, so two runs produce the same token
// exactly when they ran the same steps with the same parameters in the
// same order.
func Token(steps []Step) string {
	var b strings.Builder
	for _, st := range steps {
		b.WriteString(st.Token())
	}

	return b.String()
}

func cutoffToken(sec float64) string {
	if sec == NoCutoff {
		return "None"
	}

	return formatParam(sec) + "s"
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
