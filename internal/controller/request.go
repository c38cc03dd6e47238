package controller

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ReadFields returns the named fields from a form or JSON body. JSON numbers
// and booleans are rendered to their text form so callers see one shape.
func ReadFields(r *http.Request, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid body: %w", err)
		}
		for _, name := range names {
			switch v := body[name].(type) {
			case nil:
			case string:
				out[name] = v
			default:
				out[name] = fmt.Sprint(v)
			}
		}
		return out, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	for _, name := range names {
		out[name] = r.PostForm.Get(name)
	}
	return out, nil
}

// Truthy reads checkbox style values.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true
	}
	return false
}

// WriteJSON encodes v with the given status. Encoding failures are logged
// since the header is already out.
func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
