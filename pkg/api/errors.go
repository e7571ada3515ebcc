package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RequestError is a non-2xx response from the server.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("Request failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("Request failed: %d - %s", e.StatusCode, e.Detail)
}

// NotFound reports whether the server answered 404.
func (e *RequestError) NotFound() bool { return e.StatusCode == 404 }

// parseDetail extracts a human readable message from an error body. JSON
// bodies contribute their "detail" member; validation errors carry a list of
// {loc, msg} objects which are joined. Anything else is returned verbatim.
func parseDetail(body []byte) string {
	text := strings.TrimSpace(string(body))
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return text
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) == 0 {
				parts = append(parts, it.Msg)
				continue
			}
			loc := make([]string, len(it.Loc))
			for i, l := range it.Loc {
				loc[i] = fmt.Sprint(l)
			}
			parts = append(parts, strings.Join(loc, ".")+": "+it.Msg)
		}
		return strings.Join(parts, "; ")
	}
	return string(payload.Detail)
}
