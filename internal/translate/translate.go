// Package translate fills the English and French mirrors of the catalog's
// Italian source text, with a primary provider and a fallback.
package translate

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Result carries both target languages; providers always return them together
// so the mirrors never drift apart.
type Result struct {
	EN string `json:"en"`
	FR string `json:"fr"`
}

func (r Result) empty() bool {
	return r.EN == "" && r.FR == ""
}

// Provider turns Italian text into both target languages. The hint describes
// what the text is ("wine description") for providers that can use it.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, hint string) (Result, error)
}

// Translator is what callers of the orchestrator depend on.
type Translator interface {
	Translate(ctx context.Context, text, hint string) (Result, error)
}

// ErrNoProvider is returned when no translation provider is configured.
var ErrNoProvider = errors.New("no translation provider configured")

// Orchestrator tries the primary provider and falls back on error or on an
// empty result. The fallback's failure is the one surfaced to the caller;
// the primary's is only logged.
type Orchestrator struct {
	primary  Provider
	fallback Provider
}

func NewOrchestrator(primary, fallback Provider) *Orchestrator {
	return &Orchestrator{primary: primary, fallback: fallback}
}

// Translate resolves text into both languages. Empty input short-circuits to
// an empty result without touching any provider.
func (o *Orchestrator) Translate(ctx context.Context, text, hint string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	if o.primary == nil && o.fallback == nil {
		return Result{}, ErrNoProvider
	}

	if o.primary != nil {
		result, err := o.primary.Translate(ctx, text, hint)
		if err == nil && !result.empty() {
			return result, nil
		}
		if o.fallback == nil {
			if err != nil {
				return Result{}, err
			}
			return result, nil
		}
		if err != nil {
			log.Printf("translate: %s failed, falling back to %s: %v", o.primary.Name(), o.fallback.Name(), err)
		} else {
			log.Printf("translate: %s returned empty result, falling back to %s", o.primary.Name(), o.fallback.Name())
		}
	}

	return o.fallback.Translate(ctx, text, hint)
}
