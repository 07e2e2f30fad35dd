package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError represents a URL validation failure
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateAPIURL checks the base URL every backend path is appended to.
// A path prefix is allowed (e.g. https://host/api); query and fragment are not,
// since request paths are concatenated onto it.
func ValidateAPIURL(urlString, fieldName string, requireHTTPS bool) error {
	if strings.TrimSpace(urlString) == "" {
		return URLValidationError{Field: fieldName, Message: "URL is required", URL: urlString}
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return URLValidationError{Field: fieldName, Message: "invalid URL format", URL: urlString}
	}
	if parsedURL.Scheme == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a scheme (http:// or https://)", URL: urlString}
	}
	if parsedURL.Host == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a host", URL: urlString}
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if requireHTTPS && scheme != "https" {
		return URLValidationError{Field: fieldName, Message: "URL must use HTTPS in production", URL: urlString}
	}
	if scheme != "http" && scheme != "https" {
		return URLValidationError{Field: fieldName, Message: "URL scheme must be http or https", URL: urlString}
	}
	if parsedURL.RawQuery != "" {
		return URLValidationError{Field: fieldName, Message: "API URL must not contain query parameters", URL: urlString}
	}
	if parsedURL.Fragment != "" {
		return URLValidationError{Field: fieldName, Message: "API URL must not contain a fragment", URL: urlString}
	}

	return nil
}
