package errors

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slimloans/rigging/utils"
)

// Error is a keyed error kind. The package level values are kinds (no Err);
// Wrap and friends return copies carrying the cause and where it was raised.
type Error struct {
	Key         string                 `json:"key"`
	Err         error                  `json:"-"`
	Status      int                    `json:"-"`
	Caller      string                 `json:"-"`
	ErrorString string                 `json:"error,omitempty"`
	Data        map[string]interface{} `json:"field_errors,omitempty"`
}

func (ae Error) Error() string {
	if ae.ErrorString == "" {
		return ae.Key
	}
	return ae.ErrorString
}

// Unwrap exposes the wrapped error to errors.Is / errors.As
func (ae Error) Unwrap() error {
	return ae.Err
}

// Is matches any Error carrying the same key, so the package level
// kinds can be used as errors.Is targets
func (ae Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Key == ae.Key
}

func (ae Error) ToLogFields() logrus.Fields {
	fields := logrus.Fields{
		"key":    ae.Key,
		"error":  ae.Err,
		"caller": ae.Caller,
	}

	if ae.Status != 0 {
		fields["status"] = ae.Status
	}

	return fields
}

// NewError returns an error of this kind wrapping err. A wrapped Error
// keeps its original caller.
func (ae Error) NewError(err error) Error {
	e := Error{Key: ae.Key, Err: err, Status: ae.Status}

	if inner, ok := err.(Error); ok {
		e.Caller = inner.Caller
	} else {
		e.Caller = utils.FileWithLineNum()
	}

	switch {
	case ae.Err != nil:
		e.ErrorString = ae.Err.Error()
	case err != nil:
		e.ErrorString = err.Error()
	}

	return e
}

// Errorf builds a new error of the given kind from a format string
func Errorf(ae Error, format string, args ...interface{}) error {
	return Wrap(ae, fmt.Errorf(format, args...))
}

// SetData attaches a field to err when it is an Error; other errors are
// returned untouched
func SetData(err error, key string, value interface{}) error {
	ae, ok := err.(Error)
	if !ok {
		return err
	}

	data := make(map[string]interface{}, len(ae.Data)+1)
	for k, v := range ae.Data {
		data[k] = v
	}
	data[key] = value

	ae.Data = data
	return ae
}

// WrapWithStatus wraps err as ae with status. Errors that already carry a
// status keep it.
func WrapWithStatus(ae Error, err error, status int) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		if e.Status == 0 {
			e.Status = status
		}
		return e
	}

	n := ae.NewError(err)
	n.Status = status
	return n
}

// Wrap wraps err as ae, nil stays nil
func Wrap(ae Error, err error) error {
	if err == nil {
		return nil
	}

	return ae.NewError(err)
}
