package jellyfin

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxErrorBody caps how much of a response body is kept in a RemoteError.
const maxErrorBody = 64 << 10

// maxErrorPreview is how many bytes of the body Error shows.
const maxErrorPreview = 200

// RemoteError is a non-success HTTP status from the server.
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorPreview {
		n := maxErrorPreview
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: server returned %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// UnknownItemTypeError means the server sent a type this client does not model.
type UnknownItemTypeError struct {
	ID   string
	Type string
}

func (e *UnknownItemTypeError) Error() string {
	return fmt.Sprintf("unknown item type for %s: %q", e.ID, e.Type)
}

// MalformedResponseError means a required field was missing or undecodable.
type MalformedResponseError struct {
	URL    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	if e.URL == "" {
		return "malformed response: " + e.Reason
	}
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}
