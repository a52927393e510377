package httpapi

import (
	"context"
	"errors"
	"net/http"

	"archviz-studio/internal/gateway"
	"archviz-studio/internal/history"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/studio"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Error     string `json:"error"`
	Retryable *bool  `json:"retryable,omitempty"`
}

func statusFor(err error) int {
	var (
		cfg *prompt.ConfigError
		te  *gateway.TransportError
		ge  *gateway.GenerationFailedError
		ne  *gateway.NetworkError
	)
	switch {
	case errors.As(err, &cfg):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &te), errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.As(err, &ne):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := apiError{Error: err.Error()}
	switch status {
	case http.StatusInternalServerError:
		_ = c.Error(err)
		body.Error = "internal error"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusConflict:
		retry := gateway.Retryable(err) || status == http.StatusGatewayTimeout || status == http.StatusConflict
		body.Retryable = &retry
	}
	c.AbortWithStatusJSON(status, body)
}
