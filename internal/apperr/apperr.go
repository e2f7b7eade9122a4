// Package apperr classifies failures into the small set of kinds the HTTP
// layer knows how to map to a status code.
package apperr

import "errors"

// Kind is the class of a failure.
type Kind uint8

const (
	// KindUnknown is reported for errors that were never classified.
	KindUnknown Kind = iota
	// KindValidation means the caller supplied bad input.
	KindValidation
	// KindRemoteCall means the chain node failed or returned something unusable.
	KindRemoteCall
	// KindConfiguration means the process was started with unusable settings.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRemoteCall:
		return "remote_call"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error carries a Kind and the operation that failed. Its message is the
// message of the wrapped error, unchanged, so callers see the raw cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with the given kind and operation. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation wraps err as a KindValidation error.
func Validation(op string, err error) error {
	return E(KindValidation, op, err)
}

// RemoteCall wraps err as a KindRemoteCall error.
func RemoteCall(op string, err error) error {
	return E(KindRemoteCall, op, err)
}

// Configuration wraps err as a KindConfiguration error.
func Configuration(op string, err error) error {
	return E(KindConfiguration, op, err)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// OpOf returns the operation recorded on the outermost *Error in err's chain.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
