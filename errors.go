package pedforum

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store methods when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// ErrHTTP reports a non-success response from a remote collaborator such as
// object storage.
type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}
