package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message string", `{"statusCode":401,"message":"Invalid credentials","error":"Unauthorized"}`, "Invalid credentials"},
		{"message list", `{"statusCode":400,"message":["email must be an email","password too short"]}`, "email must be an email; password too short"},
		{"problem detail", `{"type":"about:blank","title":"Not Found","status":404,"detail":"event 42 not found"}`, "event 42 not found"},
		{"problem title only", `{"type":"about:blank","title":"Not Found","status":404}`, "Not Found"},
		{"error only", `{"error":"boom"}`, "boom"},
		{"empty body", ``, ""},
		{"not json", `<html>502 Bad Gateway</html>`, ""},
		{"message object ignored", `{"message":{"nested":true},"error":"Bad Request"}`, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message([]byte(tt.body)); got != tt.want {
				t.Fatalf("Message(%s) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestWriteProblem(t *testing.T) {
	res := httptest.NewRecorder()

	WriteProblem(res, ProblemDetails{Type: "about:blank", Title: "Not Found", Status: http.StatusNotFound, Detail: "no such event"})

	if got := res.Result().Header.Get("Content-Type"); got != ContentType {
		t.Fatalf("expected content type problem+json, got %s", got)
	}
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	var body ProblemDetails
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Detail != "no such event" {
		t.Fatalf("expected detail, got %s", body.Detail)
	}
}

func TestWriteMessage_RoundTrip(t *testing.T) {
	res := httptest.NewRecorder()

	WriteMessage(res, http.StatusConflict, "Email already registered")

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	if got := Message(res.Body.Bytes()); got != "Email already registered" {
		t.Fatalf("expected message to round-trip, got %q", got)
	}
}
