package preproc

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StepName identifies one of the supported preprocessing steps.
type StepName string

const (
	SpatialSmoothing        StepName = "spatial_smoothing"
	TemporalFiltering       StepName = "temporal_filtering"
	TimecourseNormalization StepName = "timecourse_normalization"
)

// NormMethod selects how voxel timecourses are normalised.
type NormMethod string

const (
	Zscore NormMethod = "Zscore"
	PSC    NormMethod = "PSC"
)

// ParseNormMethod converts a user supplied method name into a NormMethod.
// Matching is case-insensitive.
func ParseNormMethod(s string) (NormMethod, error) {
	switch strings.ToLower(s) {
	case "zscore":
		return Zscore, nil
	case "psc":
		return PSC, nil
	}

	return "", errors.Wrapf(ErrBadParameter, "%s: method must be one of Zscore, PSC, got %q", TimecourseNormalization, s)
}

// NoCutoff disables one side of the temporal filter.
const NoCutoff float64 = 0

// Step is a single preprocessing step together with its parameters. Only
// the parameters of the named step are meaningful.
type Step struct {
	Name StepName
	// FWHM is the smoothing kernel width in millimetres.
	FWHM float64
	// Highpass and Lowpass are filter cutoffs in seconds. NoCutoff
	// disables a side.
	Highpass float64
	Lowpass  float64
	// Method selects the normalisation.
	Method NormMethod
}

// Smooth returns a spatial smoothing step with the given kernel FWHM in
// millimetres.
func Smooth(fwhmMM float64) Step {
	return Step{Name: SpatialSmoothing, FWHM: fwhmMM}
}

// Filter returns a temporal filtering step with cutoffs in seconds. Pass
// NoCutoff to disable the highpass or lowpass side.
func Filter(highpassSec, lowpassSec float64) Step {
	return Step{Name: TemporalFiltering, Highpass: highpassSec, Lowpass: lowpassSec}
}

// Normalize returns a timecourse normalization step.
func Normalize(method NormMethod) Step {
	return Step{Name: TimecourseNormalization, Method: method}
}

// Spec is an ordered list of preprocessing steps. Steps run in the order
// they are listed, each one consuming the image produced by the previous
// one.
type Spec struct {
	steps []Step
}

// NewSpec creates a spec from the given steps and validates it.
func NewSpec(steps ...Step) (*Spec, error) {
	s := &Spec{steps: steps}
	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Steps returns the steps in execution order.
func (s *Spec) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)

	return out
}

func (s *Spec) validate() error {
	if len(s.steps) == 0 {
		return ErrEmptyPipeline
	}

	seen := make(map[StepName]struct{}, len(s.steps))
	for _, st := range s.steps {
		if _, ok := seen[st.Name]; ok {
			return errors.Wrap(ErrDuplicateStep, string(st.Name))
		}
		seen[st.Name] = struct{}{}

		err := st.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

func (st Step) validate() error {
	switch st.Name {
	case SpatialSmoothing:
		if !(st.FWHM > 0) || math.IsInf(st.FWHM, 0) {
			return errors.Wrapf(ErrBadParameter, "%s: fwhm must be greater than 0, got %v", st.Name, st.FWHM)
		}
	case TemporalFiltering:
		for _, sec := range []float64{st.Highpass, st.Lowpass} {
			if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
				return errors.Wrapf(ErrBadParameter, "%s: cutoffs must be greater than 0, got %v", st.Name, sec)
			}
		}
		if st.Highpass == NoCutoff && st.Lowpass == NoCutoff {
			return errors.Wrapf(ErrBadParameter, "%s: at least one cutoff must be set", st.Name)
		}
	case TimecourseNormalization:
		if st.Method != Zscore && st.Method != PSC {
			return errors.Wrapf(ErrBadParameter, "%s: method must be one of Zscore, PSC, got %q", st.Name, string(st.Method))
		}
	default:
		return errors.Wrap(ErrUnknownStep, string(st.Name))
	}

	return nil
}

// UnmarshalYAML decodes a pipeline from a YAML mapping of step names to
// parameters. The order of the mapping is the execution order, so the
// node is walked directly instead of decoding into a Go map.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Wrap(ErrBadParameter, "pipeline must be a mapping of step names to parameters")
	}

	steps := make([]Step, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return errors.Wrap(err, "decode step name")
		}

		step, err := decodeStep(StepName(name), value.Content[i+1])
		if err != nil {
			return err
		}
		steps = append(steps, step)
	}
	s.steps = steps

	return s.validate()
}

func decodeStep(name StepName, node *yaml.Node) (Step, error) {
	switch name {
	case SpatialSmoothing:
		var fwhm float64
		if err := node.Decode(&fwhm); err != nil {
			return Step{}, errors.Wrapf(ErrBadParameter, "%s: fwhm must be a number of millimetres", name)
		}

		return Smooth(fwhm), nil
	case TemporalFiltering:
		if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
			return Step{}, errors.Wrapf(ErrBadParameter, "%s: cutoffs must be a sequence [highpass, lowpass] in seconds", name)
		}
		highpass, err := decodeCutoff(name, "highpass", node.Content[0])
		if err != nil {
			return Step{}, err
		}
		lowpass, err := decodeCutoff(name, "lowpass", node.Content[1])
		if err != nil {
			return Step{}, err
		}

		return Filter(highpass, lowpass), nil
	case TimecourseNormalization:
		var method string
		if err := node.Decode(&method); err != nil {
			return Step{}, errors.Wrapf(ErrBadParameter, "%s: method must be a string", name)
		}
		parsed, err := ParseNormMethod(method)
		if err != nil {
			return Step{}, err
		}

		return Normalize(parsed), nil
	default:
		return Step{}, errors.Wrap(ErrUnknownStep, string(name))
	}
}

func decodeCutoff(step StepName, side string, node *yaml.Node) (float64, error) {
	if node.Tag == "!!null" {
		return NoCutoff, nil
	}

	var sec float64
	if err := node.Decode(&sec); err != nil {
		return 0, errors.Wrapf(ErrBadParameter, "%s: %s cutoff must be a number of seconds or null", step, side)
	}
	if !(sec > 0) || math.IsInf(sec, 0) {
		return 0, errors.Wrapf(ErrBadParameter, "%s: %s cutoff must be greater than 0, use null to disable it", step, side)
	}

	return sec, nil
}
