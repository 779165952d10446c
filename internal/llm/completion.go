package llm

import (
	"context"
	"fmt"
	"time"
)

// TextCompletion is the single capability the pipeline stages need from a
// generative model: one prompt in, raw text out.
type TextCompletion interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionFunc adapts a plain function to TextCompletion
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f CompletionFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Completer adapts a Client to TextCompletion for one model tier.
// No retries happen here.
type Completer struct {
	Client  Client
	Tier    ModelTier
	JSON    bool          // use GenerateJSON instead of GenerateContent
	Timeout time.Duration // zero means no per-call timeout
}

// NewCompleter creates a Completer for a tier
func NewCompleter(client Client, tier ModelTier, timeout time.Duration) *Completer {
	return &Completer{Client: client, Tier: tier, Timeout: timeout}
}

// AsJSON returns a copy of the Completer that requests JSON output
func (c *Completer) AsJSON() *Completer {
	cp := *c
	cp.JSON = true
	return &cp
}

// Complete runs one completion. Every failure is returned as *GenerationError.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if c.Client == nil {
		return "", &GenerationError{Message: "no LLM client configured"}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var (
		text string
		err  error
	)
	if c.JSON {
		text, err = c.Client.GenerateJSON(ctx, prompt, c.Tier)
	} else {
		text, err = c.Client.GenerateContent(ctx, prompt, c.Tier)
	}
	if err != nil {
		return "", &GenerationError{
			Message: fmt.Sprintf("completion with %s failed", c.Client.GetModel(c.Tier)),
			Cause:   err,
		}
	}
	return text, nil
}
