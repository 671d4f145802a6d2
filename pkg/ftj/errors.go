package ftj

import "github.com/pkg/errors"

var (
	// ErrDataDirMustBeSet is returned when no fMRIPrep directory is given.
	ErrDataDirMustBeSet = errors.New("fmriprep directory must be set")
	// ErrSubjectsMustBeSet is returned when no subject is given.
	ErrSubjectsMustBeSet = errors.New("at least one subject must be set")
	// ErrNoImages is returned when discovery finds nothing to process.
	ErrNoImages = errors.New("no preprocessed bold images found")
)
