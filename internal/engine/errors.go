package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/querybuilder/internal/treepath"
)

// RejectError reports an operation whose precondition did not hold.
//
// The tree returned alongside a RejectError is always the input tree.
type RejectError struct {
	// Code identifies the rejection category.
	Code RejectCode

	// Op names the rejected operation ("add", "move", ...).
	Op string

	// Message is a human-readable description.
	Message string

	// Path is the primary path involved.
	Path treepath.Path

	// Details contains additional context.
	Details map[string]string
}

// RejectCode categorizes rejections.
type RejectCode string

const (
	// ErrCodeInvalidPath indicates a path that does not resolve.
	ErrCodeInvalidPath RejectCode = "INVALID_PATH"

	// ErrCodeNotAGroup indicates a path that resolves to a rule where a
	// group is required.
	ErrCodeNotAGroup RejectCode = "NOT_A_GROUP"

	// ErrCodeRootPath indicates an operation that cannot target the root.
	ErrCodeRootPath RejectCode = "ROOT_PATH"

	// ErrCodeSamePath indicates identical source and destination.
	ErrCodeSamePath RejectCode = "SAME_PATH"

	// ErrCodeAncestor indicates moving or grouping a node with its own
	// ancestor or descendant.
	ErrCodeAncestor RejectCode = "ANCESTOR"

	// ErrCodeNoOp indicates an operation that would leave the tree as is.
	ErrCodeNoOp RejectCode = "NO_OP"

	// ErrCodeInvalidProp indicates a property the target does not have.
	ErrCodeInvalidProp RejectCode = "INVALID_PROP"

	// ErrCodeInvalidValue indicates a value of the wrong type for a property.
	ErrCodeInvalidValue RejectCode = "INVALID_VALUE"

	// ErrCodeIndependentCombinators indicates setting a group combinator
	// on a group in independent-combinator form.
	ErrCodeIndependentCombinators RejectCode = "INDEPENDENT_COMBINATORS"
)

// Error implements the error interface.
func (e *RejectError) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("%s %s: %s (path=%s)", e.Op, e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Code, e.Message)
}

// IsRejected returns true if err is a RejectError.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

// HasCode returns true if err is a RejectError with the given code.
func HasCode(err error, code RejectCode) bool {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func reject(op string, code RejectCode, p treepath.Path, format string, args ...any) *RejectError {
	return &RejectError{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Path:    p,
	}
}
