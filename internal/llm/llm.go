// Package llm generates derived analysis text (rules, pool dynamics,
// APY forecasts) from reserve history. All structured output is parsed
// defensively: malformed generations are discarded whole, never partially
// used.
package llm

import (
	"context"
	"errors"
)

// ErrMalformedOutput indicates the generation service returned text that
// does not parse as the expected structured shape. The iteration's output
// is discarded.
var ErrMalformedOutput = errors.New("malformed generated output")

// Generator produces text from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
