package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/framesafe/framesafe/internal/pii"
)

// Stats computes exact aggregates over events whose timestamp lies in
// [from, to]. A cold or unavailable store yields zero counts.
func (a *Auditor) Stats(from, to time.Time) Stats {
	stats := Stats{
		EventsByType:     make(map[EventType]int64),
		PIITypeFrequency: make(map[pii.Type]int64),
	}

	events, err := a.store.Range(context.Background(), from, to)
	if err != nil {
		return stats
	}

	for _, event := range events {
		stats.TotalEvents++
		stats.EventsByType[event.Type]++
		for _, t := range event.PIITypes {
			stats.PIITypeFrequency[t]++
		}
	}
	return stats
}

// Report renders a human-readable summary of the window: title, totals, and
// per-event-type and per-PII-type breakdowns with display names.
func (a *Auditor) Report(from, to time.Time) string {
	stats := a.Stats(from, to)

	var b strings.Builder
	b.WriteString("=== PII Audit Report ===\n")
	fmt.Fprintf(&b, "Period: %s to %s\n",
		from.Format(time.RFC3339), to.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total events: %d\n", stats.TotalEvents)

	b.WriteString("\nEvents by type:\n")
	if len(stats.EventsByType) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, t := range AllEventTypes {
		if count, ok := stats.EventsByType[t]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", t, count)
		}
	}

	b.WriteString("\nPII types detected:\n")
	if len(stats.PIITypeFrequency) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, t := range pii.AllTypes {
		if count, ok := stats.PIITypeFrequency[t]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", t.DisplayName(), count)
		}
	}

	return b.String()
}
