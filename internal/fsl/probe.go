package fsl

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyOutput = errors.New("command produced no output")
	ErrZeroTR      = errors.New("repetition time must be greater than 0")
)

// Runner invokes FSL command line tools. Dir points at the FSL
// installation root; when empty the tools are resolved through PATH.
type Runner struct {
	Dir string
}

// Bin returns the path of an FSL tool.
func (r *Runner) Bin(name string) string {
	if r == nil || r.Dir == "" {
		return name
	}

	return filepath.Join(r.Dir, "bin", name)
}

// RepetitionTime reads the repetition time of an image in seconds from
// its header.
func (r *Runner) RepetitionTime(ctx context.Context, image string) (float64, error) {
	out, err := r.run(ctx, "fslval", image, "pixdim4")
	if err != nil {
		return 0, errors.Wrapf(err, "read repetition time of %s", image)
	}

	tr, err := parseValue(out)
	if err != nil {
		return 0, errors.Wrapf(err, "read repetition time of %s", image)
	}
	if tr <= 0 {
		return 0, errors.Wrap(ErrZeroTR, image)
	}

	return tr, nil
}

// MedianIntensity computes the median intensity of an image within a
// mask.
func (r *Runner) MedianIntensity(ctx context.Context, image, mask string) (float64, error) {
	out, err := r.run(ctx, "fslstats", image, "-k", mask, "-p", "50")
	if err != nil {
		return 0, errors.Wrapf(err, "median intensity of %s", image)
	}

	value, err := parseValue(out)
	if err != nil {
		return 0, errors.Wrapf(err, "median intensity of %s", image)
	}

	return value, nil
}

func (r *Runner) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Bin(name), args...)
	cmd.Env = append(os.Environ(), "FSLOUTPUTTYPE=NIFTI_GZ")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func parseValue(out string) (float64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, ErrEmptyOutput
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %q", fields[0])
	}

	return value, nil
}
