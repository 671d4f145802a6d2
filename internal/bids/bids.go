// Package bids handles the naming conventions of fMRIPrep derivatives.
package bids

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMaskNotFound = errors.New("no brain mask found")
	ErrNoDescEntity = errors.New("file name has no desc entity")
)

// Image pairs a preprocessed bold series with its brain mask. Mask stays
// empty when the pipeline does not need one.
type Image struct {
	Bold string
	Mask string
}

// SubjectImages groups the discovered series of one subject.
type SubjectImages struct {
	Subject string
	Bolds   []string
}

// NormalizeSubject turns a bare participant number into a BIDS subject
// directory name, so "7" becomes "sub-007". Anything else is used as is.
func NormalizeSubject(s string) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return fmt.Sprintf("sub-%03d", n)
	}

	return s
}

// Discover expands subject labels and collects their preprocessed bold
// series from an fMRIPrep derivatives directory. Subjects without any
// series stay in the result with an empty list so callers can report
// them.
func Discover(root string, subjects []string) ([]SubjectImages, error) {
	out := make([]SubjectImages, 0, len(subjects))
	for _, s := range subjects {
		subject := NormalizeSubject(s)
		bolds, err := DiscoverBold(root, subject)
		if err != nil {
			return nil, err
		}
		out = append(out, SubjectImages{Subject: subject, Bolds: bolds})
	}

	return out, nil
}

// DiscoverBold returns the preprocessed bold series of one subject,
// sorted by path. Sessions are searched one level below the subject
// directory.
func DiscoverBold(root, subject string) ([]string, error) {
	pattern := filepath.Join(root, subject, "ses-*", "func", "*_desc-preproc_bold.nii.gz")
	bolds, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", pattern)
	}
	sort.Strings(bolds)

	return bolds, nil
}

var echoPattern = regexp.MustCompile(`echo-[0-9]_`)

// MaskPath locates the brain mask belonging to a preprocessed bold
// series. The echoes of a multi-echo series share one mask, so when no
// mask exists for the echo itself the echo entity is dropped and the
// shared mask is looked up instead.
func MaskPath(bold string) (string, error) {
	mask := strings.Replace(bold, "desc-preproc_bold", "desc-brain_mask", 1)
	if fileExists(mask) {
		return mask, nil
	}

	shared := echoPattern.ReplaceAllString(mask, "")
	if shared != mask && fileExists(shared) {
		return shared, nil
	}

	return "", errors.Wrap(ErrMaskNotFound, bold)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// OutputName derives the name for a processed series by appending the
// pipeline token to the desc entity of the input name. The output stays
// next to its input.
func OutputName(bold, token string) (string, error) {
	dir, base := filepath.Split(bold)
	segments := strings.Split(base, "_")
	for i, segment := range segments[:len(segments)-1] {
		key, value, ok := strings.Cut(segment, "-")
		if !ok || key != "desc" {
			continue
		}
		segments[i] = key + "-" + value + token

		return filepath.Join(dir, strings.Join(segments, "_")), nil
	}

	return "", errors.Wrap(ErrNoDescEntity, base)
}
