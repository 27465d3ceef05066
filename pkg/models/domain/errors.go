package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindUnavailable       ErrorKind = "unavailable"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindWriteFailed       ErrorKind = "write_failed"
	KindReadFailed        ErrorKind = "read_failed"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAllSourcesFailed  = errors.New("all control sources failed")
	ErrTraversalLimit    = errors.New("folder traversal limit reached")
	ErrNoSourcesProvided = errors.New("at least one control source must be provided")
)

type kinded interface {
	ErrorKind() ErrorKind
}

// KindOf returns the kind of the first classified error in the chain, or
// fallback when nothing in the chain carries one.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return fallback
}

// RemoteError is returned by the provider clients after classifying a failed call.
type RemoteError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error        { return e.Err }
func (e *RemoteError) ErrorKind() ErrorKind { return e.Kind }

type HierarchyError struct {
	Kind   ErrorKind
	Parent string
	Err    error
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("resolve hierarchy under %s (%s): %v", e.Parent, e.Kind, e.Err)
}

func (e *HierarchyError) Unwrap() error        { return e.Err }
func (e *HierarchyError) ErrorKind() ErrorKind { return e.Kind }

type SourceError struct {
	Kind     ErrorKind
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.SourceID, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error        { return e.Err }
func (e *SourceError) ErrorKind() ErrorKind { return e.Kind }

// NewSourceError wraps err for sourceID, keeping an existing classification.
func NewSourceError(sourceID string, err error) *SourceError {
	var se *SourceError
	if errors.As(err, &se) && se.SourceID == sourceID {
		return se
	}
	return &SourceError{
		Kind:     KindOf(err, KindUnavailable),
		SourceID: sourceID,
		Err:      err,
	}
}

type CacheError struct {
	Kind ErrorKind
	Key  string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Kind, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error        { return e.Err }
func (e *CacheError) ErrorKind() ErrorKind { return e.Kind }
