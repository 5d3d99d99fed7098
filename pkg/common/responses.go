package common

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"graphdiff/pkg/errors"
)

// RespondJSON writes data as the JSON response body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondNoContent writes an empty 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ParseJSONBody decodes the request body into v. Bodies over maxBytes,
// empty bodies and malformed JSON become validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			appErr := errors.NewValidationError("request body too large").
				WithCode("PAYLOAD_TOO_LARGE").
				WithDetail("limit", tooLarge.Limit)
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			return appErr
		case stderrors.Is(err, io.EOF):
			return errors.NewValidationError("request body is required").WithCode("EMPTY_BODY")
		}
		return errors.NewValidationError("invalid JSON body").WithCode("INVALID_JSON").WithCause(err)
	}
	return nil
}
