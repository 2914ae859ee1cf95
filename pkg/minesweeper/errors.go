package minesweeper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrorKind classifies an APIError.
type ErrorKind int

const (
	// KindItemNotFound means the server answered 404.
	KindItemNotFound ErrorKind = iota + 1
	// KindNetwork means the exchange could not complete (DNS, connect, timeout, TLS).
	KindNetwork
	// KindUnknown means the server answered any other non-2xx status; Code holds it.
	KindUnknown
	// KindDecode means a 2xx body did not match the expected schema, or the request
	// body could not be encoded. Nothing is sent in the latter case.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindItemNotFound:
		return "item_not_found"
	case KindNetwork:
		return "network"
	case KindUnknown:
		return "unknown"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// APIError is the only error type returned by Client operations.
type APIError struct {
	Kind ErrorKind
	// Code is the HTTP status for KindItemNotFound and KindUnknown, zero otherwise.
	Code int
	// Detail is a short hint taken from the error body, for logs only.
	Detail string
	Err    error
}

// Sentinels for errors.Is. Unknown statuses are matched with UnknownError(code).
var (
	ErrItemNotFound = &APIError{Kind: KindItemNotFound}
	ErrNetwork      = &APIError{Kind: KindNetwork}
	ErrDecode       = &APIError{Kind: KindDecode}
)

// UnknownError builds an APIError for an unexpected HTTP status.
// As an errors.Is target, UnknownError(0) matches any unknown status.
func UnknownError(code int) *APIError {
	return &APIError{Kind: KindUnknown, Code: code}
}

func (e *APIError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindItemNotFound:
		b.WriteString("minesweeper: item not found")
	case KindNetwork:
		b.WriteString("minesweeper: network error")
	case KindUnknown:
		fmt.Fprintf(&b, "minesweeper: unexpected status %d", e.Code)
	case KindDecode:
		b.WriteString("minesweeper: decode response")
	default:
		fmt.Fprintf(&b, "minesweeper: %s", e.Kind)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches on kind, and on status code when the target carries one.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == 0 || t.Code == e.Code
}

// AsAPIError extracts the APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or zero when err is not an APIError.
func KindOf(err error) ErrorKind {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Kind
	}
	return 0
}

var (
	errNoTransport = errors.New("no transport configured")
	errNoResponse  = errors.New("transport returned no response")
)

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

func decodeError(err error) *APIError {
	return &APIError{Kind: KindDecode, Err: err}
}

// statusError classifies a non-2xx status.
func statusError(status int, body []byte) *APIError {
	if status == http.StatusNotFound {
		return &APIError{Kind: KindItemNotFound, Code: status, Detail: responseDetail(body)}
	}
	return &APIError{Kind: KindUnknown, Code: status, Detail: responseDetail(body)}
}

const maxDetailLen = 256

// responseDetail pulls a readable hint out of an error body: a JSON message field,
// the title of an HTML error page, or a trimmed snippet.
func responseDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if body[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			return truncate(firstNonEmpty(payload.Message, payload.Error))
		}
	}

	if body[0] == '<' {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			if title := firstNonEmpty(doc.Find("title").First().Text(), doc.Find("h1").First().Text()); title != "" {
				return truncate(title)
			}
		}
		return ""
	}

	return truncate(string(body))
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxDetailLen {
		s = s[:maxDetailLen]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
