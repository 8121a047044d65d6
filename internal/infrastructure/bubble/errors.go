package bubble

import "fmt"

// DeliveryError is a failed call against the destination platform: either a
// non-2xx response or a success response whose body could not be parsed. It
// keeps the HTTP status and raw error body for the queue's error_details.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("bubble delivery failed: status %d: %s", e.StatusCode, e.Body)
}
