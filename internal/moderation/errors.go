package moderation

import (
	"errors"
	"fmt"
)

// Kind classifies a moderation failure so callers can pick a remediation
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means the input was rejected; nothing was classified or stored
	KindValidation
	// KindModelInference means the classifier failed or returned malformed output
	KindModelInference
	// KindStorageUnavailable means the log store could not be reached
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindModelInference:
		return "model_inference"
	case KindStorageUnavailable:
		return "storage_unavailable"
	}
	return "unknown"
}

// Error codes, finer grained than Kind
const (
	CodeEmptyText              = "empty_text"
	CodeMalformedRequest       = "malformed_request"
	CodeInvalidImage           = "invalid_image"
	CodeUnsupportedContentType = "unsupported_content_type"
	CodePayloadTooLarge        = "payload_too_large"
	CodeInferenceFailed        = "inference_failed"
	CodeMalformedOutput        = "malformed_output"
	CodeMalformedScore         = "malformed_score"
	CodeStorageUnavailable     = "storage_unavailable"
)

// Error is returned by every stage of the pipeline
type Error struct {
	Kind Kind
	Code string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError builds a KindValidation error
func ValidationError(op, code string, err error) error {
	return &Error{Kind: KindValidation, Code: code, Op: op, Err: err}
}

// InferenceError builds a KindModelInference error
func InferenceError(op, code string, err error) error {
	return &Error{Kind: KindModelInference, Code: code, Op: op, Err: err}
}

// StorageError builds a KindStorageUnavailable error
func StorageError(op string, err error) error {
	return &Error{Kind: KindStorageUnavailable, Code: CodeStorageUnavailable, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first *Error in err's chain
func CodeOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
