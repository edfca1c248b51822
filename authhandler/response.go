package authhandler

import (
	"bytes"
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// responseJSON encodes v and writes it with the given status. If encoding
// fails a plain 500 is written instead.
func responseJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func responseError(w http.ResponseWriter, code int, msg string) {
	responseJSON(w, code, errorResponse{Error: msg})
}
