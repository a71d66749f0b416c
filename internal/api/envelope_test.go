package api

import (
	"encoding/json"
	"testing"

	"storefront/internal/model"
)

func TestFlexBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`1`, true},
		{`true`, true},
		{`"1"`, true},
		{`"true"`, true},
		{`0`, false},
		{`false`, false},
		{`"0"`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		var b flexBool
		if err := json.Unmarshal([]byte(tt.input), &b); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.input, err)
		}
		if bool(b) != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, b, tt.want)
		}
	}
}

func TestFlexStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"single"`, "single"},
		{`["a", "", "b"]`, "a b"},
		{`[null, "x", 3]`, "x"},
		{`null`, ""},
		{`42`, ""},
	}

	for _, tt := range tests {
		var f flexStrings
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.input, err)
		}
		if got := f.Join(); got != tt.want {
			t.Errorf("Unmarshal(%s).Join() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestToResult(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantKind    model.FailureKind
		wantMessage string
		wantData    string
		wantBare    bool
	}{
		{"wrapped data", 200, `{"success":1,"data":{"items":[]}}`, true, model.FailureNone, "", `{"items":[]}`, false},
		{"bare object", 200, `{"id":3}`, true, model.FailureNone, "", `{"id":3}`, true},
		{"message kept", 200, `{"success":true,"message":"Cart cleared"}`, true, model.FailureNone, "Cart cleared", `{"success":true,"message":"Cart cleared"}`, true},
		{"empty body", 204, ``, true, model.FailureNone, "", ``, false},
		{"success false with message", 200, `{"success":false,"message":"Out of stock"}`, false, model.FailureUpstream, "Out of stock", ``, false},
		{"error beats message", 200, `{"success":0,"error":"Bad key","message":"ignored"}`, false, model.FailureUpstream, "Bad key", ``, false},
		{"success false bare", 200, `{"success":0}`, false, model.FailureUpstream, "Request failed", ``, false},
		{"server message preferred", 404, `{"message":"Store not found"}`, false, model.FailureNotFound, "Store not found", ``, false},
		{"status default", 403, `not json`, false, model.FailureForbidden, MsgForbidden, ``, false},
		{"bare cart items", 200, `{"success":1,"items":[{"product_id":1}]}`, true, model.FailureNone, "", `{"success":1,"items":[{"product_id":1}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := toResult(tt.status, []byte(tt.body))
			if res.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", res.Success, tt.wantSuccess)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", res.Kind, tt.wantKind)
			}
			if res.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMessage)
			}
			if string(res.Data) != tt.wantData {
				t.Errorf("Data = %s, want %s", res.Data, tt.wantData)
			}
			if res.Bare != tt.wantBare {
				t.Errorf("Bare = %v, want %v", res.Bare, tt.wantBare)
			}
			if res.Status != tt.status {
				t.Errorf("Status = %d, want %d", res.Status, tt.status)
			}
		})
	}
}
