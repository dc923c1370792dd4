package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Cycle   []string `json:"cycle,omitempty"`

	// Scenario is the stored scenario after a rejected edit.
	Scenario *story.Scenario `json:"scenario,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), newErrorBody(err))
}

// writeRejected reports a rejected edit together with the scenario the
// client should continue from.
func writeRejected(w http.ResponseWriter, err error, current *story.Scenario) {
	body := newErrorBody(err)
	body.Scenario = current
	writeJSON(w, errors.HTTPStatus(err), body)
}

func newErrorBody(err error) errorBody {
	body := errorBody{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
	}
	var cycle *errors.CycleError
	if stderrors.As(err, &cycle) {
		body.Cycle = cycle.Path
	}
	return body
}

// readScenario decodes a scenario object or a bare scene array from the
// request body.
func readScenario(r *http.Request) (*story.Scenario, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	sc, err := story.UnmarshalScenario(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "invalid scenario document")
	}
	return sc, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
}
