package errors

import (
	stderrors "errors"
	"net/http"
)

func WrapGeneric(err error) error {
	return WrapWithStatus(ErrorGeneric, err, http.StatusInternalServerError)
}

func WrapFatal(err error) error {
	return Wrap(ErrorFatal, err)
}

func WrapMalformedBody(err error) error {
	return WrapWithStatus(ErrorMalformedBody, err, http.StatusBadRequest)
}

// Unwrap attempts to unwind the error all the way back
func Unwrap(err error) Error {
	if ae, ok := err.(Error); ok {
		if e, ok := ae.Err.(Error); ok {
			return Unwrap(e)
		}
		return ae
	}
	return ErrorGeneric.NewError(err)
}

// StatusCode returns the HTTP status carried by err, 500 when it has none
func StatusCode(err error) int {
	var ae Error
	if stderrors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Is proxies errors.Is so callers only need this package
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Join proxies errors.Join
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
