package store

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

const (
	codeResourceNotFound = "ResourceNotFoundException"
	codeTableMissing     = "TableMissing"
	codeUnprocessed      = "UnprocessedItems"
	codeSerialization    = "SerializationError"
	codeUnknown          = "Unknown"
)

// ErrTableMissing is returned by operations on a table that has been dropped.
var ErrTableMissing = &Error{Code: codeTableMissing, Message: "table does not exist"}

// Error is the only error type returned by the store. Service errors keep
// their DynamoDB code; anything else gets one of the codes above.
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error (%s): %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(code string, err error) *Error {
	return &Error{Code: code, Message: err.Error(), err: err}
}

// wrapError converts err into *Error. Service errors keep their code,
// transport failures and timeouts become codeUnknown.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &Error{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), err: err}
	}
	return newError(codeUnknown, err)
}

func isResourceNotFound(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == codeResourceNotFound
}
