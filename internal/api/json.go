package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"routeopt/internal/opt"
	"routeopt/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeError maps engine and store errors onto problem responses.
func writeError(w http.ResponseWriter, err error, instance string) {
	var verr *opt.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, "invalid request", verr.Error(), instance)
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not found", "", instance)
	case errors.Is(err, opt.ErrDeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "optimization deadline exceeded", err.Error(), instance)
	default:
		var all *opt.AllSolversFailedError
		if errors.As(err, &all) {
			writeProblem(w, http.StatusUnprocessableEntity, "no feasible route", all.Error(), instance)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "internal error", err.Error(), instance)
	}
}
