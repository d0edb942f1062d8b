package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsThrottled(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"empty body", "", false},
		{"empty object", "{}", false},
		{"throttle code", `{"code":"9019"}`, true},
		{"other code", `{"code":"0"}`, false},
		{"non-json passthrough", "not json", false},
	}
	for _, c := range cases {
		if got := isThrottled([]byte(c.body)); got != c.want {
			t.Errorf("isThrottled(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

func TestNewMessageIDHasNoDashes(t *testing.T) {
	id := newMessageID()
	for _, r := range id {
		if r == '-' {
			t.Fatalf("newMessageID() = %q, contains a dash", id)
		}
	}
	if len(id) != 32 {
		t.Errorf("newMessageID() length = %d, want 32 (dashless uuid)", len(id))
	}
}

func TestMSSClientPushHardFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	client := NewMSSClient(srv.URL, "app-id", "app-key", nil, nil)
	_, err := client.Push(context.Background(), "classData", map[string]string{"id": "1"})
	if err == nil {
		t.Error("Push against a 500 response should return an error")
	}
}

func TestMSSClientPushSucceedsImmediatelyWhenNotThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string][]map[string]string
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode push envelope: %v", err)
		}
		if _, ok := envelope["classData"]; !ok {
			t.Errorf("envelope missing classData key: %+v", envelope)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"descCode":"200"}`))
	}))
	defer srv.Close()

	client := NewMSSClient(srv.URL, "app-id", "app-key", nil, nil)
	body, err := client.Push(context.Background(), "classData", map[string]string{"id": "1"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if string(body) != `{"descCode":"200"}` {
		t.Errorf("Push body = %q, want the raw reply", body)
	}
}
