// Package calendar imports committed busy intervals from an external
// iCalendar feed so the planner can schedule around events that live outside
// the local task store.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"planr/internal/schedule"
)

// FetchBusy retrieves and parses iCalendar events from a URL or file path,
// returning the events that overlap the [windowStart, windowEnd) window as
// busy intervals.
func FetchBusy(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]schedule.BusyInterval, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	return decodeBusy(r, windowStart, windowEnd)
}

func decodeBusy(r io.Reader, windowStart, windowEnd time.Time) ([]schedule.BusyInterval, error) {
	dec := ical.NewDecoder(r)
	var busy []schedule.BusyInterval

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(nil)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(nil)
			if err != nil {
				continue
			}
			if !start.Before(end) {
				continue
			}

			window := schedule.Span{Start: windowStart, End: windowEnd}
			if !schedule.Overlaps(schedule.Span{Start: start, End: end}, window) {
				continue
			}

			uid, _ := event.Props.Text(ical.PropUID)
			busy = append(busy, schedule.BusyInterval{
				ID:    uid,
				Start: start.UTC(),
				End:   end.UTC(),
			})
		}
	}

	return busy, nil
}
