package salon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/easysalon/salon-concierge/internal/booking"
)

// Gateway adapts the EasySalon client to the booking dialogue's catalog and
// booking interfaces.
type Gateway struct {
	client *Client
}

// NewGateway wraps a salon client.
func NewGateway(client *Client) *Gateway {
	if client == nil {
		panic("salon: client cannot be nil")
	}
	return &Gateway{client: client}
}

var (
	_ booking.CatalogGateway = (*Gateway)(nil)
	_ booking.BookingGateway = (*Gateway)(nil)
)

// ListBranches returns the salon branches as selectable options.
func (g *Gateway) ListBranches(ctx context.Context) ([]booking.Option, error) {
	branches, err := g.client.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]booking.Option, 0, len(branches))
	for _, b := range branches {
		opt := booking.Option{
			ID:   strconv.FormatInt(b.ID, 10),
			Name: b.Name,
		}
		if b.Address != "" {
			opt.Attrs = append(opt.Attrs, booking.OptionAttr{Label: "Address", Value: b.Address})
		}
		if b.Mobile != "" {
			opt.Attrs = append(opt.Attrs, booking.OptionAttr{Label: "Phone", Value: b.Mobile})
		}
		options = append(options, opt)
	}
	return options, nil
}

// ListServices returns the bookable services as selectable options.
func (g *Gateway) ListServices(ctx context.Context) ([]booking.Option, error) {
	services, err := g.client.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]booking.Option, 0, len(services))
	for _, svc := range services {
		opt := booking.Option{
			ID:   strconv.FormatInt(svc.ID, 10),
			Name: svc.Name,
		}
		if svc.Price > 0 {
			opt.Attrs = append(opt.Attrs, booking.OptionAttr{Label: "Price", Value: formatPrice(svc.Price)})
		}
		if svc.Time > 0 {
			opt.Attrs = append(opt.Attrs, booking.OptionAttr{Label: "Duration", Value: fmt.Sprintf("%d minutes", svc.Time)})
		}
		options = append(options, opt)
	}
	return options, nil
}

// CreateBooking submits a finalized booking. Success is strictly a response
// carrying a booking code; anything else is an error for the dialogue to
// recover from.
func (g *Gateway) CreateBooking(ctx context.Context, req booking.Request) (*booking.Confirmation, error) {
	branchID, err := strconv.ParseInt(req.BranchID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("salon: invalid branch id %q", req.BranchID)
	}
	serviceID, err := strconv.ParseInt(req.ServiceID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("salon: invalid service id %q", req.ServiceID)
	}

	resp, err := g.client.CreateBooking(ctx, CreateBookingRequest{
		CustomerMobile: req.CustomerPhone,
		CustomerName:   req.CustomerName,
		TotalCustomer:  req.PartySize,
		BranchID:       branchID,
		BookingDetails: []BookingDetail{
			{ServiceStaffs: []ServiceStaff{{ServiceID: serviceID}}},
		},
		BookingDate: req.Date,
		BookingTime: req.Time,
	})
	if err != nil {
		return nil, err
	}
	if resp.BookingCode == "" {
		msg := resp.Message
		if msg == "" {
			msg = "booking was not confirmed"
		}
		return nil, fmt.Errorf("salon: booking rejected: %s", msg)
	}

	return &booking.Confirmation{
		BookingID:        strconv.FormatInt(resp.ID, 10),
		ConfirmationCode: resp.BookingCode,
		Message:          resp.Message,
	}, nil
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
