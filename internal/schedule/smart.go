package schedule

import (
	"context"
	"fmt"
	"strings"
)

// EnhanceGoal rewrites a goal as a SMART goal (specific, measurable,
// achievable, relevant, time-bound). Never fails: oracle trouble falls back
// to a fixed template.
func (d *Decomposer) EnhanceGoal(ctx context.Context, goal string) string {
	response, err := d.oracle.Generate(ctx, buildEnhancePrompt(goal))
	if err != nil || strings.TrimSpace(response) == "" {
		if err != nil {
			d.logger.Warn("goal enhancement failed, using template", "error", err)
		}
		return fmt.Sprintf("Make %q more specific with a timeline and a measurable outcome", goal)
	}
	return strings.TrimSpace(response)
}
