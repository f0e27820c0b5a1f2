package misttrack

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAPIKey is returned for every endpoint except status when no key is configured
var ErrMissingAPIKey = errors.New("misttrack API key is not set, create one at https://dashboard.misttrack.io/apikeys")

// ErrMissingTarget is returned by GetRiskScore when neither address nor txid is given
var ErrMissingTarget = errors.New("either address or txid must be provided")

// APIError is a failed call: a non-2xx HTTP status or an envelope with success=false
type APIError struct {
	Endpoint string
	Status   int
	Msg      string
}

func (e *APIError) Error() string {
	if e.Status != 0 && e.Status != http.StatusOK {
		return fmt.Sprintf("misttrack %s: status %d: %s", e.Endpoint, e.Status, e.Msg)
	}
	return fmt.Sprintf("misttrack %s: %s", e.Endpoint, e.Msg)
}

// Retryable reports whether the status is worth another attempt
func (e *APIError) Retryable() bool {
	return e.Status >= 500 ||
		e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout
}
