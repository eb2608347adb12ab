package gateway

import (
	"net/http"

	apperrors "github.com/storefront-tools/admin-console/internal/errors"
)

// Outcome classifies a single auth API round trip. It is produced once at
// the network-call boundary so downstream consumers match on a closed set
// of variants instead of probing transport errors.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalidCredentials
	OutcomeNotAuthorized
	OutcomeNetworkOrServerError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidCredentials:
		return "invalid credentials"
	case OutcomeNotAuthorized:
		return "not authorized"
	case OutcomeNetworkOrServerError:
		return "network or server error"
	}
	return "unknown"
}

// Err maps the outcome onto the shared error taxonomy; nil for success.
func (o Outcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeInvalidCredentials:
		return apperrors.ErrInvalidCredentials
	case OutcomeNotAuthorized:
		return apperrors.ErrNotAuthorized
	default:
		return apperrors.ErrNetworkOrServer
	}
}

// outcomeFromStatus maps an HTTP status onto an Outcome. Transport errors
// and timeouts never reach this; they classify as network-or-server.
func outcomeFromStatus(status int) Outcome {
	switch status {
	case http.StatusOK:
		return OutcomeSuccess
	case http.StatusUnauthorized:
		return OutcomeInvalidCredentials
	case http.StatusForbidden:
		return OutcomeNotAuthorized
	default:
		return OutcomeNetworkOrServerError
	}
}
