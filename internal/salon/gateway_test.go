package salon

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easysalon/salon-concierge/internal/booking"
)

func TestGatewayListBranches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":10,"name":"Downtown Spa","address":"1 Main St","mobile":"555-0100"},
			{"id":11,"name":"Riverside Salon"}
		]}`))
	})
	gw := NewGateway(client)

	options, err := gw.ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, "10", options[0].ID)
	assert.Equal(t, "Downtown Spa", options[0].Name)
	require.Len(t, options[0].Attrs, 2)
	assert.Equal(t, booking.OptionAttr{Label: "Address", Value: "1 Main St"}, options[0].Attrs[0])

	assert.Equal(t, "11", options[1].ID)
	assert.Empty(t, options[1].Attrs)
}

func TestGatewayListServices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":20,"name":"Haircut","price":150000,"time":45}]}`))
	})
	gw := NewGateway(client)

	options, err := gw.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "20", options[0].ID)
	assert.Equal(t, booking.OptionAttr{Label: "Duration", Value: "45 minutes"}, options[0].Attrs[1])
}

func TestGatewayCreateBooking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":555,"bookingCode":"BK-123"}}`))
	})
	gw := NewGateway(client)

	conf, err := gw.CreateBooking(context.Background(), booking.Request{
		CustomerName:  "Lan",
		CustomerPhone: "0905123456",
		PartySize:     1,
		BranchID:      "10",
		ServiceID:     "20",
		Date:          "2026-09-03",
		Time:          "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "555", conf.BookingID)
	assert.Equal(t, "BK-123", conf.ConfirmationCode)
}

func TestGatewayCreateBookingNoCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":0,"bookingCode":"","message":"slot unavailable"}}`))
	})
	gw := NewGateway(client)

	_, err := gw.CreateBooking(context.Background(), booking.Request{
		BranchID: "10", ServiceID: "20", Date: "2026-09-03", Time: "14:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot unavailable")
}

func TestGatewayCreateBookingBadIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	gw := NewGateway(client)

	_, err := gw.CreateBooking(context.Background(), booking.Request{BranchID: "abc", ServiceID: "20"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid branch id")

	_, err = gw.CreateBooking(context.Background(), booking.Request{BranchID: "10", ServiceID: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service id")
}
