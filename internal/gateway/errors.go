package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	MessagePayloadTooLarge = "Payload too large: reduce image sizes and try again."
	MessageGatewayTimeout  = "Gateway timeout: the model took too long to respond. Please try again."
)

// TransportError is an HTTP-level failure of the generation endpoint.
type TransportError struct {
	Status  int
	Message string
	Body    string
}

func (e *TransportError) Error() string {
	return e.Message
}

// Retryable is false for client errors other than 408, 413 and 429: the
// endpoint rejected the request itself and sending it again cannot succeed.
func (e *TransportError) Retryable() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusRequestEntityTooLarge, http.StatusTooManyRequests:
		return true
	}
	return e.Status < 400 || e.Status >= 500
}

// GenerationFailedError means the endpoint answered but the model reported
// an error.
type GenerationFailedError struct {
	Status  int
	Message string
}

func (e *GenerationFailedError) Error() string {
	return "generation failed: " + e.Message
}

// NetworkError means no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is a transport or generation failure the
// user may retry.
func Retryable(err error) bool {
	var (
		te *TransportError
		ge *GenerationFailedError
		ne *NetworkError
	)
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return errors.As(err, &ge) || errors.As(err, &ne)
}

func transportMessage(status int, statusText string) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return MessagePayloadTooLarge
	case http.StatusGatewayTimeout:
		return MessageGatewayTimeout
	default:
		return fmt.Sprintf("generation endpoint error: %s", statusText)
	}
}
