package bridge

import "net/http"

// HttpError is returned by every action that can fail in a way the caller must see.
type HttpError struct {
	Message string
	Code    int
	Error   error
}

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Message: message, Code: code, Error: err}
}

func BadRequest(message string, err error) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *HttpError {
	return NewHttpError(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *HttpError {
	return NewHttpError(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *HttpError {
	return NewHttpError(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *HttpError {
	return NewHttpError(http.StatusConflict, message, err)
}

func Internal(message string, err error) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message, err)
}
