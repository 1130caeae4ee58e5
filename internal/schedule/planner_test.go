package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubOracle returns canned responses in order, recording every prompt.
type stubOracle struct {
	responses []string
	err       error
	prompts   []string
}

func (s *stubOracle) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.prompts) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func placedJSON(events ...PlacedEvent) string {
	out := "["
	for i, e := range events {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"title":%q,"start":%q,"end":%q}`,
			e.Title, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return out + "]"
}

func TestPlaceTasks_RejectsMalformedBatch(t *testing.T) {
	tests := []struct {
		name     string
		requests []PlacementRequest
	}{
		{"empty_title", []PlacementRequest{{Title: "  ", DurationMinutes: 30}}},
		{"zero_duration", []PlacementRequest{{Title: "A", DurationMinutes: 0}}},
		{"negative_duration", []PlacementRequest{{Title: "A", DurationMinutes: -15}}},
		{"one_bad_fails_all", []PlacementRequest{
			{Title: "fine", DurationMinutes: 30},
			{Title: "", DurationMinutes: 60},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &stubOracle{responses: []string{"[]"}}
			p := NewPlanner(o, nil)

			_, err := p.PlaceTasks(context.Background(), tt.requests, nil)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
			if len(o.prompts) != 0 {
				t.Error("oracle was called for a malformed batch")
			}
		})
	}
}

func TestPlaceTasks_EmptyBatch(t *testing.T) {
	o := &stubOracle{responses: []string{"[]"}}
	p := NewPlanner(o, nil)

	got, err := p.PlaceTasks(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
	if len(o.prompts) != 0 {
		t.Error("oracle was called for an empty batch")
	}
}

func TestPlaceTasks_OracleFailureIsFatal(t *testing.T) {
	o := &stubOracle{err: errors.New("connection refused")}
	p := NewPlanner(o, nil)

	_, err := p.PlaceTasks(context.Background(),
		[]PlacementRequest{{Title: "A", DurationMinutes: 60}}, nil)
	if err == nil {
		t.Fatal("expected a scheduling error")
	}
}

func TestPlaceTasks_UnparsableResponseIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no_array", "I cannot schedule these tasks."},
		{"not_an_object_array", `["a", "b"]`},
		{"missing_title", `[{"start":"2025-09-01T10:00:00Z","end":"2025-09-01T11:00:00Z"}]`},
		{"missing_end", `[{"title":"A","start":"2025-09-01T10:00:00Z"}]`},
		{"bad_timestamp", `[{"title":"A","start":"tomorrow","end":"2025-09-01T11:00:00Z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(&stubOracle{responses: []string{tt.response}}, nil)

			_, err := p.PlaceTasks(context.Background(),
				[]PlacementRequest{{Title: "A", DurationMinutes: 60}}, nil)
			if err == nil {
				t.Fatal("expected a scheduling error, got none")
			}
		})
	}
}

func TestPlaceTasks_LocalCheckIsAuthoritative(t *testing.T) {
	busy := []BusyInterval{{Start: at(9, 0), End: at(10, 0)}}

	// The oracle ignores the busy slot for one proposal and double-books two
	// others; only the locally verified survivors come back.
	o := &stubOracle{responses: []string{placedJSON(
		PlacedEvent{Title: "violates busy", Start: at(9, 30), End: at(10, 30)},
		PlacedEvent{Title: "first free", Start: at(11, 0), End: at(12, 0)},
		PlacedEvent{Title: "double booked", Start: at(11, 30), End: at(12, 30)},
		PlacedEvent{Title: "fine", Start: at(14, 0), End: at(15, 0)},
	)}}
	p := NewPlanner(o, nil)

	requests := []PlacementRequest{
		{Title: "violates busy", DurationMinutes: 60},
		{Title: "first free", DurationMinutes: 60},
		{Title: "double booked", DurationMinutes: 60},
		{Title: "fine", DurationMinutes: 60},
	}

	got, err := p.PlaceTasks(context.Background(), requests, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 || got[0].Title != "first free" || got[1].Title != "fine" {
		t.Fatalf("got %+v, want [first free, fine]", got)
	}
	for _, e := range got {
		for _, b := range busy {
			if Overlaps(e.Span(), b.Span()) {
				t.Errorf("placed event %q overlaps busy interval", e.Title)
			}
		}
	}
}

func TestPlaceTasks_DropsInvalidSpans(t *testing.T) {
	o := &stubOracle{responses: []string{placedJSON(
		PlacedEvent{Title: "backwards", Start: at(12, 0), End: at(11, 0)},
		PlacedEvent{Title: "zero length", Start: at(13, 0), End: at(13, 0)},
		PlacedEvent{Title: "ok", Start: at(14, 0), End: at(15, 0)},
	)}}
	p := NewPlanner(o, nil)

	got, err := p.PlaceTasks(context.Background(),
		[]PlacementRequest{{Title: "ok", DurationMinutes: 60}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "ok" {
		t.Fatalf("got %+v, want only the valid proposal", got)
	}
}

func TestPlaceTasks_PlacementSafety(t *testing.T) {
	busy := []BusyInterval{{Start: at(9, 0), End: at(10, 0)}}
	o := &stubOracle{responses: []string{placedJSON(
		PlacedEvent{Title: "A", Start: at(10, 0), End: at(11, 0)},
	)}}
	p := NewPlanner(o, nil)

	got, err := p.PlaceTasks(context.Background(),
		[]PlacementRequest{{Title: "A", DurationMinutes: 60}}, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range got {
		if Overlaps(e.Span(), busy[0].Span()) {
			t.Errorf("event %q not disjoint from busy interval", e.Title)
		}
	}
}
