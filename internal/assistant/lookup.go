package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/easysalon/salon-concierge/internal/salon"
)

// BookingFinder looks up existing bookings by confirmation code or phone.
type BookingFinder interface {
	FindByCode(ctx context.Context, code string) (*salon.BookingRecord, error)
	FindByMobile(ctx context.Context, mobile string) ([]salon.BookingRecord, error)
}

var (
	bookingCodeRe = regexp.MustCompile(`\b[A-Z]{2,3}-?\d[A-Z0-9]{2,}\b`)
	phoneRe       = regexp.MustCompile(`\+?\d[\d .()-]{7,13}\d`)

	lookupHints = []string{
		"my booking", "my appointment", "my reservation",
		"booking code", "confirmation code", "look up", "find my", "check my",
	}
)

// isBookingLookup detects a request to retrieve an existing booking: a
// lookup phrase plus something to look it up by.
func isBookingLookup(text string) bool {
	lower := strings.ToLower(text)
	hinted := false
	for _, hint := range lookupHints {
		if strings.Contains(lower, hint) {
			hinted = true
			break
		}
	}
	if !hinted {
		return false
	}
	return bookingCodeRe.MatchString(text) || phoneRe.MatchString(text)
}

// answerLookup retrieves a booking by confirmation code when one appears
// in the message, otherwise by phone number.
func (s *Service) answerLookup(ctx context.Context, message string) string {
	ctx, span := tracer.Start(ctx, "assistant.booking_lookup")
	defer span.End()

	if code := bookingCodeRe.FindString(message); code != "" {
		rec, err := s.bookings.FindByCode(ctx, code)
		if err != nil {
			span.RecordError(err)
			s.logger.Error("assistant: booking lookup failed", "code", code, "error", err)
			return lookupFailureReply
		}
		if rec == nil {
			return fmt.Sprintf("I couldn't find a booking with code %s. Please double-check the code, or share the phone number the booking was made under.", code)
		}
		return formatBookingRecord(rec)
	}

	phone := phoneRe.FindString(message)
	records, err := s.bookings.FindByMobile(ctx, phone)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("assistant: booking lookup failed", "error", err)
		return lookupFailureReply
	}
	if len(records) == 0 {
		return "I couldn't find any bookings under that phone number. Would you like to make a new booking?"
	}
	return formatBookingList(records)
}

const lookupFailureReply = "I'm sorry, I couldn't look up your booking just now. Please try again in a moment."

func formatBookingRecord(rec *salon.BookingRecord) string {
	var b strings.Builder
	b.WriteString("**Your booking:**\n\n")
	fmt.Fprintf(&b, "- Confirmation code: %s\n", rec.BookingCode)
	fmt.Fprintf(&b, "- Customer: %s\n", rec.CustomerName)
	if rec.BranchName != "" {
		fmt.Fprintf(&b, "- Branch: %s\n", rec.BranchName)
	}
	fmt.Fprintf(&b, "- Date: %s\n", rec.BookingDate)
	fmt.Fprintf(&b, "- Time: %s\n", rec.BookingTime)
	if rec.Status != "" {
		fmt.Fprintf(&b, "- Status: %s\n", rec.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBookingList(records []salon.BookingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d booking(s) under that phone number:\n", len(records))
	for i := range records {
		b.WriteString("\n")
		b.WriteString(formatBookingRecord(&records[i]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
