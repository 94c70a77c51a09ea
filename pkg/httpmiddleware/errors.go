package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/jx"
)

// WriteError writes the JSON error body shared by every endpoint:
//
//	{"code":"not_found","message":"...","requestId":"..."}
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.FieldStart("message")
	e.Str(message)
	if id := RequestIDFromContext(r.Context()); id != "" {
		e.FieldStart("requestId")
		e.Str(id)
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
