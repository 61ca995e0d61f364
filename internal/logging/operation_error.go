package logging

import (
	"fmt"
	"strings"
)

// OperationError ties a failure to the pipeline step that produced it. Stage
// is the state the upload was in when the step failed, and is empty for
// errors raised outside the upload pipeline, such as retention bookkeeping.
type OperationError struct {
	Operation string
	Stage     string
	UploadID  string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Stage != "" {
		fmt.Fprintf(&b, " [%s]", e.Stage)
	}
	if e.UploadID != "" {
		fmt.Fprintf(&b, " (upload_id=%s)", e.UploadID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err without a pipeline stage. A nil err stays nil.
func NewOperationError(operation, uploadID string, err error) error {
	return NewStageError(operation, "", uploadID, err)
}

// NewStageError wraps err with the operation and the stage the upload was
// in. A nil err stays nil.
func NewStageError(operation, stage, uploadID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Stage: stage, UploadID: uploadID, Err: err}
}
