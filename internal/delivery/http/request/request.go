package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const maxBodyBytes = 64 << 10

// DecodeJSON decodes a single JSON object from the request body.
// Bodies over 64KB and trailing data are rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	if dec.More() {
		return errors.New("failed to decode JSON: unexpected trailing data")
	}
	return nil
}

// GetIntQuery returns a non-negative integer query parameter, or defaultValue
// when it is absent or malformed
func GetIntQuery(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
