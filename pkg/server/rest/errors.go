package rest

import (
	"errors"
	"net/http"

	"github.com/OsmSharp/ui-sub009/pkg/server"
	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ErrResponse is the body of every failed request.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText    string   `json:"status"`
	ErrorText     string   `json:"error,omitempty"`
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  errV,
	}
}

// ErrFromService maps the code of a server.Error to the http status.
// Internal errors never leak their message.
func ErrFromService(err error) render.Renderer {
	resp := &ErrResponse{Err: err, ErrorText: err.Error()}
	var e *server.Error
	if errors.As(err, &e) {
		resp.ErrorText = e.Message()
	}

	switch server.CodeOf(err) {
	case server.ErrBadParamInput:
		resp.HTTPStatusCode, resp.StatusText = http.StatusBadRequest, "Invalid request."
	case server.ErrNotFound:
		resp.HTTPStatusCode, resp.StatusText = http.StatusNotFound, "Not found."
	case server.ErrConflict:
		resp.HTTPStatusCode, resp.StatusText = http.StatusConflict, "Conflict."
	default:
		resp.HTTPStatusCode, resp.StatusText = http.StatusInternalServerError, "Internal server error."
		resp.ErrorText = "internal server error"
	}
	return resp
}

func translateError(err error, trans ut.Translator) []string {
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		out = append(out, e.Translate(trans))
	}
	return out
}
