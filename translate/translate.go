// Package translate converts text between languages through a cascade of
// network providers.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrTranslationUnavailable indicates that every provider in the cascade
// failed. Callers surface it as a single "translation failed" message; which
// provider failed, and why, stays in the logs.
var ErrTranslationUnavailable = errors.New("translation is unavailable")

// Request is one immutable translation request. Source and Target are
// ISO 639-1 codes.
type Request struct {
	Text   string
	Source string
	Target string
}

// Provider translates a single request or fails. Translation is atomic: no
// partial or streaming results.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// Cascade tries the primary provider and falls back to the secondary on any
// failure. Exactly two attempts, strictly sequential; no retries beyond the
// one fallback hop and no timeout beyond the providers' transport defaults.
type Cascade struct {
	primary   Provider
	secondary Provider
	logger    *log.Logger
}

func NewCascade(primary, secondary Provider, logger *log.Logger) *Cascade {
	return &Cascade{primary: primary, secondary: secondary, logger: logger}
}

func (c *Cascade) Translate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}

	out, err := c.primary.Translate(ctx, req)
	if err == nil {
		return out, nil
	}
	c.logger.Warn("primary translation failed, falling back",
		"provider", c.primary.Name(), "error", err)

	out, err = c.secondary.Translate(ctx, req)
	if err == nil {
		return out, nil
	}
	c.logger.Error("secondary translation failed",
		"provider", c.secondary.Name(), "error", err)

	return "", ErrTranslationUnavailable
}
