package schedule

// Overlaps reports whether two spans share any instant. Touching endpoints do
// not count: an event ending at 10:00 is compatible with one starting at
// 10:00.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// FilterNonOverlapping returns the subsequence of candidates, in their
// original order, whose members overlap neither any committed interval nor
// any candidate already accepted into the result. Acceptance is greedy in
// input order: when two candidates collide, the earlier one wins. No sorting
// happens here; the caller expresses priority purely through input order.
//
// Spans with End <= Start must be rejected before reaching this function.
func FilterNonOverlapping(candidates []PlacedEvent, committed []BusyInterval) []PlacedEvent {
	accepted := make([]PlacedEvent, 0, len(candidates))

	for _, c := range candidates {
		if collides(c.Span(), committed, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}

	return accepted
}

func collides(s Span, committed []BusyInterval, accepted []PlacedEvent) bool {
	for _, b := range committed {
		if Overlaps(s, b.Span()) {
			return true
		}
	}
	for _, a := range accepted {
		if Overlaps(s, a.Span()) {
			return true
		}
	}
	return false
}
