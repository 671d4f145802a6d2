package preproc

import "github.com/pkg/errors"

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrEmptyPipeline     = errors.New("pipeline must contain at least one step")
	ErrUnknownStep       = errors.New("unknown step")
	ErrDuplicateStep     = errors.New("step cannot be listed twice")
	ErrBadParameter      = errors.New("bad step parameter")
)
