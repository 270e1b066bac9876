package salon

import (
	"context"
	"strings"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

// BookingDirectory looks up existing bookings through the salon API's
// booking search.
type BookingDirectory struct {
	client *Client
	logger *logging.Logger
}

// NewBookingDirectory creates a booking directory.
func NewBookingDirectory(client *Client, logger *logging.Logger) *BookingDirectory {
	if client == nil {
		panic("salon: client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingDirectory{client: client, logger: logger}
}

// FindByCode retrieves the booking with the given confirmation code.
// Returns (nil, nil) when no booking matches.
func (d *BookingDirectory) FindByCode(ctx context.Context, code string) (*BookingRecord, error) {
	records, err := d.client.SearchBookings(ctx, code)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if strings.EqualFold(records[i].BookingCode, code) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// FindByMobile retrieves all bookings registered under a phone number.
// Punctuation in the number is ignored on both sides.
func (d *BookingDirectory) FindByMobile(ctx context.Context, mobile string) ([]BookingRecord, error) {
	digits := digitsOnly(mobile)
	records, err := d.client.SearchBookings(ctx, digits)
	if err != nil {
		return nil, err
	}
	matches := make([]BookingRecord, 0, len(records))
	for _, rec := range records {
		if digitsOnly(rec.CustomerMobile) == digits {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
