package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/go-resty/resty/v2"
)

var (
	ErrBadRequest   = errors.New("client: bad request")
	ErrUnauthorized = errors.New("client: sign in required")
	ErrServer       = errors.New("client: server error")
	ErrInvalidURL   = errors.New("client: invalid base url")
)

// APIError is a non-2xx response. Error returns the server's message
// verbatim so it can be shown to the user as is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Code = body.Code
		if apiErr.Code == "" {
			apiErr.Code = body.Error
		}
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		apiErr.kind = ErrBadRequest
	case http.StatusUnauthorized:
		apiErr.kind = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.kind = notes.ErrNoteNotFound
	case http.StatusUnprocessableEntity:
		apiErr.kind = notes.ErrMissingFields
	default:
		apiErr.kind = ErrServer
	}
	return apiErr
}
