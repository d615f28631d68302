package httpclient

import (
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
)

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. The remote backend does not return a
// structured error envelope, so the raw body (truncated) is preserved in the
// message for diagnostics.
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	msg := fmt.Sprintf("%s returned status %d: %s", serviceName, resp.StatusCode, string(bodyBytes))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(serviceName, resp.Request.URL.Path)
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case resp.StatusCode >= 500:
		return apperrors.Unavailable(msg)
	default:
		return apperrors.BackendFailure(msg)
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
