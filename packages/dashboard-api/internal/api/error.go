package api

var _ error = (*APIError)(nil)

// APIError pairs an internal error with the message and status returned to the client.
type APIError struct {
	Err       error
	ClientMsg string
	Code      int
}

func (e *APIError) Error() string {
	return e.Err.Error()
}
