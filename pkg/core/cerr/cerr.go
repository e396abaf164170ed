// Package cerr provides error values which carry an HTTP status code
// in addition to their wrapped cause, so the REST adapter layer can
// serialize business rejections without switching on error types.
package cerr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Err            error
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func BadRequest(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusBadRequest}
}

func Authentication(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusUnauthorized}
}

func NotFound(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusNotFound}
}

func Conflict(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusConflict}
}

// PaymentRequired marks a settlement which was declined by the payment
// port, so the exit gate must stay closed.
func PaymentRequired(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusPaymentRequired}
}
