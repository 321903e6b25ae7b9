package ipc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

const maxListLimit = 500

// queryLimit reads ?limit, falling back to def and capping at
// maxListLimit.
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, maxListLimit)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
}

// writeError writes err as JSON. Coded errors carry their code.
func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: http.StatusText(status), Status: status}
	if err != nil {
		body.Error = err.Error()
		var coded *crerrors.Error
		if errors.As(err, &coded) {
			body.Code = string(coded.Code)
		}
	}
	writeJSON(w, status, body)
}
