package preproc

import "fmt"

// Stage is one step of an assembled plan together with the filename
// fragment it contributes.
type Stage struct {
	Step  Step
	Token string
}

// Describe returns a human readable summary of the stage parameters.
func (s Stage) Describe() string {
	switch s.Step.Name {
	case SpatialSmoothing:
		return fmt.Sprintf("fwhm %s mm", formatParam(s.Step.FWHM))
	case TemporalFiltering:
		return fmt.Sprintf("highpass %s, lowpass %s", describeCutoff(s.Step.Highpass), describeCutoff(s.Step.Lowpass))
	case TimecourseNormalization:
		return "method " + string(s.Step.Method)
	}

	return ""
}

func describeCutoff(sec float64) string {
	if sec == NoCutoff {
		return "off"
	}

	return formatParam(sec) + " s"
}

// Plan is a validated pipeline ready to run. Stages execute in order, each
// consuming the image produced by the previous one.
type Plan struct {
	Stages []Stage
	// Token is the fragment appended to the desc entity of every output
	// file name.
	Token string
}

// Assemble validates a spec and resolves it into an executable plan. It
// fails on the first unknown step, duplicated step or malformed parameter.
func Assemble(spec *Spec) (*Plan, error) {
	if spec == nil {
		return nil, ErrPipelineMustBeSet
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	stages := make([]Stage, 0, len(spec.steps))
	for _, st := range spec.steps {
		stages = append(stages, Stage{Step: st, Token: st.Token()})
	}

	return &Plan{Stages: stages, Token: Token(spec.steps)}, nil
}

// NeedsMask reports whether any stage requires a brain mask.
func (p *Plan) NeedsMask() bool {
	for _, s := range p.Stages {
		if s.Step.Name == SpatialSmoothing || s.Step.Name == TimecourseNormalization {
			return true
		}
	}

	return false
}

// NeedsTR reports whether any stage requires the repetition time of the
// input image.
func (p *Plan) NeedsTR() bool {
	for _, s := range p.Stages {
		if s.Step.Name == TemporalFiltering {
			return true
		}
	}

	return false
}

// NeedsMedian reports whether any stage requires the median intensity
// within the brain mask.
func (p *Plan) NeedsMedian() bool {
	for _, s := range p.Stages {
		if s.Step.Name == SpatialSmoothing {
			return true
		}
	}

	return false
}
