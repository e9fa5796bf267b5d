package client

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("API key not configured")
	// ErrUnsupportedPlatform is returned for platforms without a client implementation.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// quotaMarker is how OpenAI flags an exhausted quota inside an otherwise normal body.
const quotaMarker = "insufficient_quota"

// ProviderError is a logical failure reported by the provider (bad request, quota, auth).
// Transport failures are never wrapped in it.
type ProviderError struct {
	Platform   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return "Error message: " + e.Message
}

// IsQuota reports whether the provider rejected the call for quota reasons.
func (e *ProviderError) IsQuota() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.Code == quotaMarker ||
		e.Code == "RESOURCE_EXHAUSTED"
}

// AsProviderError unwraps err into a *ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// providerErrorFromBody extracts `error.message` from an error body of any shape.
func providerErrorFromBody(platform string, status int, body []byte) *ProviderError {
	perr := &ProviderError{Platform: platform, StatusCode: status}

	parsed := gjson.ParseBytes(body)
	if msg := parsed.Get("error.message"); msg.Exists() && msg.String() != "" {
		perr.Message = msg.String()
	}
	if code := parsed.Get("error.code"); code.Exists() && code.Type == gjson.String {
		perr.Code = code.String()
	} else if typ := parsed.Get("error.type"); typ.Exists() {
		perr.Code = typ.String()
	}

	if perr.Message == "" {
		perr.Message = strings.TrimSpace(string(body))
	}
	if perr.Message == "" {
		perr.Message = http.StatusText(status)
	}
	if perr.Code == "" && strings.Contains(string(body), quotaMarker) {
		perr.Code = quotaMarker
	}
	return perr
}
