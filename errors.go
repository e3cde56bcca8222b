package safesubmit

import "errors"

// ErrAlreadyReserved is returned internally when a reservation is lost to a
// concurrent request for the same key
var ErrAlreadyReserved = errors.New("idempotency key already reserved")

// ConflictResponse is the JSON body returned when a request reuses an
// idempotency token that is still reserved.
type ConflictResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
