// Package oracle abstracts the external generative-text service. Callers
// treat its output as advisory and untrusted; everything it proposes is
// re-validated locally.
package oracle

import "context"

// Oracle is a single request/response capability: one natural-language prompt
// in, unstructured text out. Implementations must honor ctx cancellation.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
