package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// Wire shapes the oracle is instructed to return. Instants travel as ISO 8601
// UTC strings and are parsed/validated on the way back in.
type taskItem struct {
	Title       string `json:"title" jsonschema:"minLength=1"`
	Description string `json:"description"`
	Start       string `json:"start" jsonschema:"format=date-time"`
	End         string `json:"end" jsonschema:"format=date-time"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type placedItem struct {
	Title string `json:"title" jsonschema:"minLength=1"`
	Start string `json:"start" jsonschema:"format=date-time"`
	End   string `json:"end" jsonschema:"format=date-time"`
}

var (
	taskItemSchema   = mustSchemaJSON(&taskItem{})
	placedItemSchema = mustSchemaJSON(&placedItem{})
)

func mustSchemaJSON(v any) string {
	r := &jsonschema.Reflector{DoNotReference: true}
	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("reflecting prompt schema: %v", err))
	}
	return string(data)
}

func buildDecomposePrompt(text string, now time.Time) string {
	return fmt.Sprintf(`You are an intelligent task breakdown assistant. Analyze the user input, extract any timing pattern, and create multiple specific subtasks.

Today is %s (UTC).

User input: %q

Instructions:
1. Parse any repetition count and time-of-day pattern from the input (e.g. "7 days straight at 5pm", "every day for N days", "over 4 weeks").
2. Break the goal into that many distinct, semantically varied subtasks. Never use generic placeholders like "Day 1" or "Task 2".
3. Apply the extracted time pattern to each subtask, advancing the date by one day (or one week for weekly patterns) per subtask while keeping the time of day fixed.
4. Give each subtask a realistic duration between 30 and 120 minutes.
5. Use absolute ISO 8601 UTC datetimes only.
6. Set "category" to "ai-generated" and default "priority" to "medium".

Example: "Go to the gym 3 days straight at 5pm" becomes three tasks such as "Back and Biceps Workout" (today 17:00), "Chest and Triceps Day" (tomorrow 17:00), "Leg Day - Squats and Lunges" (day 3 at 17:00).

Return ONLY a JSON array. Each element must match this JSON schema:
%s`, now.UTC().Format(time.RFC3339), text, taskItemSchema)
}

func buildExpandPrompt(task TaskCandidate) string {
	return fmt.Sprintf(`Break down this single task into 3-5 smaller, ordered, actionable steps:

Task: %q
Description: %q
Scheduled: %s to %s (UTC)

Create multiple smaller tasks that lead to completing this goal, scheduled on or after the original start, each 30 to 120 minutes long, with absolute ISO 8601 UTC datetimes.

Return ONLY a JSON array. Each element must match this JSON schema:
%s`,
		task.Title, task.Description,
		task.Start.UTC().Format(time.RFC3339), task.End.UTC().Format(time.RFC3339),
		taskItemSchema)
}

func buildPlacementPrompt(requests []PlacementRequest, busy []BusyInterval) string {
	var b strings.Builder

	b.WriteString("You are a smart scheduling assistant. Place the tasks below into open time, avoiding every busy slot.\n\n")

	b.WriteString("Busy time slots:\n")
	if len(busy) == 0 {
		b.WriteString("- none\n")
	}
	for _, slot := range busy {
		fmt.Fprintf(&b, "- %s to %s\n", slot.Start.UTC().Format(time.RFC3339), slot.End.UTC().Format(time.RFC3339))
	}

	b.WriteString("\nTasks to schedule, in priority order:\n")
	for _, req := range requests {
		fmt.Fprintf(&b, "- %s (%d minutes)\n", req.Title, req.DurationMinutes)
	}

	fmt.Fprintf(&b, `
Rules:
- Propose start and end times for as many tasks as feasible, preferring open hours (9 AM - 6 PM, Monday-Friday).
- A proposed event must never overlap a busy slot or another proposed event.
- If a task cannot be placed, omit it. Do not guess.
- Use absolute ISO 8601 UTC datetimes only, and keep each task's exact duration.

Return ONLY a JSON array. Each element must match this JSON schema:
%s`, placedItemSchema)

	return b.String()
}

func buildEnhancePrompt(goal string) string {
	return fmt.Sprintf(`Transform this goal into a SMART goal (Specific, Measurable, Achievable, Relevant, Time-bound). Keep it concise and actionable. Respond with the enhanced goal text only.

Original goal: %q`, goal)
}
