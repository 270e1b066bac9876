package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/easysalon/salon-concierge/internal/booking"
	"github.com/easysalon/salon-concierge/internal/salon"
)

// AvailabilityChecker exposes appointment slot generation to the dialogue
// layer.
type AvailabilityChecker interface {
	Check(ctx context.Context, q salon.AvailabilityQuery) ([]salon.TimeSlot, error)
}

var availabilityHints = []string{"available", "availability", "slot", "opening", "free time"}

func isAvailabilityQuery(text string) bool {
	lower := strings.ToLower(text)
	for _, hint := range availabilityHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

const maxListedSlots = 8

// answerAvailability resolves the requested date with the field extractor
// and lists the open slots for it.
func (s *Service) answerAvailability(ctx context.Context, message string) string {
	ctx, span := tracer.Start(ctx, "assistant.answer_availability")
	defer span.End()

	query := salon.AvailabilityQuery{}
	if s.extractor != nil {
		fields, err := s.extractor.Extract(ctx, message, booking.ExtractedFields{})
		if err != nil {
			s.logger.Warn("assistant: availability date extraction failed", "error", err)
		} else if fields.Date != "" {
			if normalized, err := booking.NormalizeDate(fields.Date, s.now()); err == nil {
				if day, err := time.Parse("2006-01-02", normalized); err == nil {
					query.Date = day
				}
			}
		}
	}

	slots, err := s.availability.Check(ctx, query)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("assistant: availability check failed", "error", err)
		return "I'm sorry, I couldn't check availability just now. Please try again in a moment."
	}
	if len(slots) == 0 {
		return "I couldn't find any open slots for that day. Would you like to try a different date?"
	}
	return formatSlots(slots)
}

func formatSlots(slots []salon.TimeSlot) string {
	if len(slots) > maxListedSlots {
		slots = slots[:maxListedSlots]
	}

	var b strings.Builder
	b.WriteString("Here are the open appointment slots:\n\n")
	day := ""
	for _, slot := range slots {
		if d := slot.Start.Format("Monday, January 2"); d != day {
			day = d
			fmt.Fprintf(&b, "**%s**\n", d)
		}
		fmt.Fprintf(&b, "- %s at %s (%d minutes)\n", slot.Start.Format("15:04"), slot.Branch, slot.Duration)
	}
	b.WriteString("\nSay 'book' and I'll reserve one for you.")
	return b.String()
}
