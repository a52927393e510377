package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"archviz-studio/internal/gateway"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/studio"
)

// auxRole maps the /as argument to the slot the next photo fills.
func auxRole(arg string) (prompt.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "site", "context", "map":
		return prompt.RoleSite, true
	case "ref", "reference", "style":
		return prompt.RoleReference, true
	case "material", "material1", "mat1", "mat":
		return prompt.RoleMaterial1, true
	case "material2", "mat2":
		return prompt.RoleMaterial2, true
	default:
		return "", false
	}
}

// userMessage turns a generation error into chat text.
func userMessage(err error) string {
	var (
		cfg *prompt.ConfigError
		te  *gateway.TransportError
		ge  *gateway.GenerationFailedError
		ne  *gateway.NetworkError
	)
	switch {
	case errors.As(err, &cfg):
		return fmt.Sprintf("⚠️ %s (%s).", cfg.Reason, cfg.Field)
	case errors.Is(err, studio.ErrGenerationInProgress):
		return "⏳ A render is already running. Please wait for it to finish."
	case errors.As(err, &te):
		return "❌ " + te.Message
	case errors.As(err, &ge):
		return "❌ The model did not return an image: " + ge.Message
	case errors.As(err, &ne):
		return "📡 The generation service is unreachable. Please try again shortly."
	case errors.Is(err, context.DeadlineExceeded):
		return "⌛ The render took too long. Please try again."
	default:
		return "❌ Something went wrong. Please try again."
	}
}
