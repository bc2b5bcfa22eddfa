package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postRegister(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	h := NewHandler(NewService(newMockAccountStore()), nil)

	rec := postRegister(h, `{"username": "alice", "email": "alice@example.com", "password": "hunter22"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Email != "alice@example.com" || resp.Role != "USER" || resp.CreditBalance != "0" {
		t.Errorf("response: %+v", resp)
	}
}

func TestRegisterHandlerErrorBodiesAreJSON(t *testing.T) {
	h := NewHandler(NewService(newMockAccountStore()), nil)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing fields", `{"username": "alice"}`, http.StatusBadRequest},
		// The validation error quotes the email; the body must stay JSON.
		{"malformed email", `{"username": "alice", "email": "not an email", "password": "hunter22"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postRegister(h, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tc.status)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Errorf("error body is not JSON: %v (%s)", err, rec.Body.String())
			}
			if resp["error"] == "" {
				t.Errorf("missing error field: %s", rec.Body.String())
			}
		})
	}

	rec := postRegister(h, `{"username": "bob", "email": "bob@example.com", "password": "pass1234"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed register: %d", rec.Code)
	}
	rec = postRegister(h, `{"username": "bob2", "email": "bob@example.com", "password": "pass1234"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: %d", rec.Code)
	}
}
