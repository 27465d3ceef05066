package gcp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"google.golang.org/api/googleapi"
)

// classify wraps a failed call into a RemoteError. Anything that is not clearly
// a permission or request problem is treated as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.RemoteError{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) domain.ErrorKind {
	var (
		gerr      *googleapi.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &gerr):
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.KindPermissionDenied
		case http.StatusBadRequest, http.StatusNotFound:
			return domain.KindMalformedResponse
		default:
			return domain.KindUnavailable
		}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return domain.KindMalformedResponse
	default:
		return domain.KindUnavailable
	}
}
