package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tier-3 pattern extraction. A best-effort heuristic over three fixed
// patterns, not a language-understanding system.
var (
	dayCountPattern  = regexp.MustCompile(`(\d+)\s*days?`)
	timeOfDayPattern = regexp.MustCompile(`at\s*(\d{1,2})\s*(am|pm)`)
	activityPattern  = regexp.MustCompile(`(gym|workout|study|work|meeting|practice)`)
)

const maxFallbackDays = 7

// Varied, human-readable subtask names per known activity. Unknown activities
// get numbered "Day k" titles instead.
var activityTitles = map[string][]string{
	"gym": {
		"Back and Biceps Workout",
		"Chest and Triceps Training",
		"Leg Day - Squats and Lunges",
		"Cardio and Core Session",
		"Shoulders and Arms",
		"Full Body Strength Training",
		"Recovery Yoga and Stretching",
	},
	"workout": {
		"Upper Body Strength",
		"Cardio Blast Session",
		"Core and Abs Focus",
		"Lower Body Power",
		"HIIT Training",
		"Flexibility and Mobility",
		"Active Recovery",
	},
	"study": {
		"Mathematics Review",
		"Science Chapter Study",
		"History Analysis",
		"Literature Reading",
		"Practice Problems",
		"Review and Summary",
		"Mock Test Prep",
	},
}

// fallbackTasks is the deterministic, oracle-free decomposition path. It
// always returns at least one time-anchored task, so decomposition can never
// come back empty even with the oracle down.
func fallbackTasks(text string, now time.Time) []TaskCandidate {
	input := strings.ToLower(text)

	dayMatch := dayCountPattern.FindStringSubmatch(input)
	timeMatch := timeOfDayPattern.FindStringSubmatch(input)

	if dayMatch != nil && timeMatch != nil {
		return patternTasks(text, input, dayMatch, timeMatch, now)
	}
	return genericTasks(text, now)
}

// patternTasks handles inputs like "gym 3 days at 5pm": one task per
// consecutive calendar day starting today, at the parsed hour, 60 minutes
// each.
func patternTasks(text, input string, dayMatch, timeMatch []string, now time.Time) []TaskCandidate {
	count, _ := strconv.Atoi(dayMatch[1])
	if count > maxFallbackDays {
		count = maxFallbackDays
	}
	if count < 1 {
		count = 1
	}

	hour, _ := strconv.Atoi(timeMatch[1])
	// Noon and midnight: 12pm is hour 12, 12am is hour 0.
	if timeMatch[2] == "pm" && hour != 12 {
		hour += 12
	} else if timeMatch[2] == "am" && hour == 12 {
		hour = 0
	}

	activity := "activity"
	if m := activityPattern.FindStringSubmatch(input); m != nil {
		activity = m[1]
	}
	titles := activityTitles[activity]

	tasks := make([]TaskCandidate, 0, count)
	for i := 0; i < count; i++ {
		day := now.AddDate(0, 0, i)
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
		end := start.Add(time.Hour)

		var title string
		if len(titles) > 0 {
			title = titles[i%len(titles)]
		} else {
			title = fmt.Sprintf("Day %d: %s", i+1, activity)
		}

		tasks = append(tasks, TaskCandidate{
			Title:       title,
			Description: fmt.Sprintf("%s scheduled for %s", title, timeMatch[0]),
			Start:       start,
			End:         end,
			Category:    CategoryAIGenerated,
			Priority:    PriorityMedium,
		})
	}

	return tasks
}

// genericTasks is the last resort when no count/time pattern is recognized: a
// fixed four-phase breakdown on consecutive days at 10:00-12:00.
func genericTasks(text string, now time.Time) []TaskCandidate {
	steps := []string{"Planning Phase", "Preparation", "Implementation", "Review"}

	tasks := make([]TaskCandidate, 0, len(steps))
	for i, step := range steps {
		day := now.AddDate(0, 0, i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, day.Location())
		end := start.Add(2 * time.Hour)

		priority := PriorityMedium
		if i == 0 {
			priority = PriorityHigh
		}

		tasks = append(tasks, TaskCandidate{
			Title:       step,
			Description: fmt.Sprintf("%s for: %q", step, text),
			Start:       start,
			End:         end,
			Category:    CategoryAIGenerated,
			Priority:    priority,
		})
	}

	return tasks
}
