package usecase

import (
	"errors"

	"github.com/example/leafcheck/internal/logging"
)

// Stage is a state of the upload pipeline.
type Stage string

const (
	StageAwaitingInput Stage = "awaiting_input"
	StageRejectedInput Stage = "rejected_input"
	StagePersisting    Stage = "persisting"
	StageClassifying   Stage = "classifying"
	StageResolved      Stage = "resolved"
	StageFailed        Stage = "failed"
)

// Operation names used in OperationError and logs.
const (
	opValidate = "pipeline.validate"
	opPersist  = "pipeline.persist"
	opClassify = "pipeline.classify"
)

var (
	// ErrNoFileSelected means the request carried no file or an empty filename.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrInvalidFileType means the filename extension is not allowed.
	ErrInvalidFileType = errors.New("invalid file type")
)

// StageOf maps the outcome of Diagnose to its terminal state.
func StageOf(err error) Stage {
	switch {
	case err == nil:
		return StageResolved
	case errors.Is(err, ErrNoFileSelected), errors.Is(err, ErrInvalidFileType):
		return StageRejectedInput
	default:
		return StageFailed
	}
}

// FailedAt returns the stage an unsuccessful upload was in when it stopped:
// StageAwaitingInput for rejections, StagePersisting or StageClassifying for
// failures. It returns StageResolved for a nil error and StageFailed when the
// error carries no stage.
func FailedAt(err error) Stage {
	if err == nil {
		return StageResolved
	}
	var opErr *logging.OperationError
	if errors.As(err, &opErr) && opErr.Stage != "" {
		return Stage(opErr.Stage)
	}
	return StageFailed
}
