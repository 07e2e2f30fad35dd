// Package problem reads and writes the error bodies exchanged with the events
// backend: RFC 7807 problem documents and the framework-style
// {"message": ...} shape the backend emits for rejected requests.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const ContentType = "application/problem+json"

type ProblemDetails struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Errors   map[string]interface{} `json:"errors,omitempty"`
}

// errorBody covers every error shape we have seen from the backend.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
	Title   string          `json:"title"`
	Detail  string          `json:"detail"`
}

// Message extracts the backend's human-readable rejection reason from an error
// response body. It returns "" when the body carries none.
//
// Precedence: "message" (string, or list joined with "; "), then problem
// "detail", then problem "title", then "error".
func Message(body []byte) string {
	var parsed errorBody
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		return ""
	}

	if msg := rawMessage(parsed.Message); msg != "" {
		return msg
	}
	switch {
	case parsed.Detail != "":
		return parsed.Detail
	case parsed.Title != "":
		return parsed.Title
	default:
		return parsed.Error
	}
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

// WriteProblem writes problem as an application/problem+json response.
func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}

// WriteMessage writes the {"statusCode", "message", "error"} body the backend
// uses for validation and authentication failures.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
		Error      string `json:"error"`
	}{status, message, http.StatusText(status)})
}
