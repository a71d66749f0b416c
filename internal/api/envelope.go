package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"storefront/internal/model"
)

// envelope is the backend's response wrapper:
//
//	{"success": 1, "data": {...}, "message": "...", "error": ["..."], "errors": {"field": ["..."]}}
//
// Every field is optional and several have more than one JSON shape.
type envelope struct {
	Success *flexBool              `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Message string                 `json:"message"`
	Error   flexStrings            `json:"error"`
	Errors  map[string]flexStrings `json:"errors"`
}

// reason is the server's explanation: error text first, then message.
func (e *envelope) reason() string {
	if msg := e.Error.Join(); msg != "" {
		return msg
	}
	return e.Message
}

func (e *envelope) fieldErrors() map[string][]string {
	if len(e.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Errors))
	for field, msgs := range e.Errors {
		out[field] = []string(msgs)
	}
	return out
}

// decodeEnvelope parses body as an envelope. ok is false for bodies that are
// not JSON objects (bare arrays, HTML error pages, empty).
func decodeEnvelope(body []byte) (env envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// flexBool accepts true/false, 1/0 and "1"/"0"/"true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "1", "true":
		*b = true
	default:
		*b = false
	}
	return nil
}

// flexStrings accepts a string, a list of strings, or null.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = []string{s}
		return nil
	}
	// numbers, objects: not something a user can read
	*f = nil
	return nil
}

// Join concatenates the non-empty entries with single spaces.
func (f flexStrings) Join() string {
	parts := make([]string, 0, len(f))
	for _, s := range f {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// toResult classifies a completed HTTP exchange.
func toResult(status int, body []byte) *model.Result {
	env, isEnvelope := decodeEnvelope(body)

	if status >= 200 && status < 300 {
		if !isEnvelope {
			res := model.OK(nil)
			if len(bytes.TrimSpace(body)) > 0 && json.Valid(body) {
				res.Data = json.RawMessage(body)
				res.Bare = true
			}
			res.Status = status
			return res
		}
		if env.Success != nil && !bool(*env.Success) {
			msg := env.reason()
			if msg == "" {
				msg = "Request failed"
			}
			res := model.Fail(model.FailureUpstream, msg)
			res.Errors = env.fieldErrors()
			res.Data = env.Data
			res.Status = status
			return res
		}
		res := model.OK(env.Data)
		if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
			// bare object payload; callers read it as data
			res.Data = json.RawMessage(bytes.TrimSpace(body))
			res.Bare = true
		}
		res.Message = env.Message
		res.Status = status
		return res
	}

	res := model.Fail(model.KindForStatus(status), "")
	res.Status = status
	if isEnvelope {
		res.Message = env.reason()
		res.Errors = env.fieldErrors()
		res.Data = env.Data
	}
	if res.Message == "" {
		res.Message = defaultMessage(status)
	}
	return res
}
