package gateway

import (
	"encoding/json"
	"net/http"
)

// successEnvelope is returned with a 200. Query is only set by search.
type successEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Query   *string         `json:"query,omitempty"`
}

// failureEnvelope always carries the error key; it is null unless debug is on.
type failureEnvelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

// validationEnvelope lists the messages of every invalid field.
type validationEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeSuccess(w http.ResponseWriter, data json.RawMessage, query *string) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data, Query: query})
}

func writeFailure(w http.ResponseWriter, status int, message string, detail *string) {
	writeJSON(w, status, failureEnvelope{Success: false, Message: message, Error: detail})
}

func writeValidation(w http.ResponseWriter, err *ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, validationEnvelope{
		Success: false,
		Message: err.Message,
		Errors:  err.Fields,
	})
}
