package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

// stubCatalog serves fixed branch and service lists.
type stubCatalog struct {
	branches []Option
	services []Option

	branchErr  error
	serviceErr error

	branchCalls  int
	serviceCalls int
}

func (c *stubCatalog) ListBranches(context.Context) ([]Option, error) {
	c.branchCalls++
	return c.branches, c.branchErr
}

func (c *stubCatalog) ListServices(context.Context) ([]Option, error) {
	c.serviceCalls++
	return c.services, c.serviceErr
}

// stubGateway records booking requests and returns a canned outcome.
type stubGateway struct {
	conf *Confirmation
	err  error
	reqs []Request
}

func (g *stubGateway) CreateBooking(_ context.Context, req Request) (*Confirmation, error) {
	g.reqs = append(g.reqs, req)
	return g.conf, g.err
}

// stubExtractor maps full messages to extracted fields.
type stubExtractor struct {
	byMessage map[string]ExtractedFields
	err       error
}

func (e *stubExtractor) Extract(_ context.Context, message string, _ ExtractedFields) (ExtractedFields, error) {
	if e.err != nil {
		return ExtractedFields{}, e.err
	}
	return e.byMessage[message], nil
}

func testBranches() []Option {
	return []Option{
		{ID: "10", Name: "Downtown Spa", Attrs: []OptionAttr{{Label: "Address", Value: "1 Main St"}}},
		{ID: "11", Name: "Riverside Salon"},
	}
}

func testServices() []Option {
	return []Option{
		{ID: "20", Name: "Haircut"},
		{ID: "21", Name: "Manicure"},
	}
}

func newTestSession(catalog *stubCatalog, gateway *stubGateway, extractor *stubExtractor) *Session {
	return NewSession(SessionConfig{
		Catalog:   catalog,
		Gateway:   gateway,
		Extractor: extractor,
		Logger:    logging.New("error"),
		Now:       func() time.Time { return fakeNow },
	})
}

func TestHappyPathBooking(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches(), services: testServices()}
	gateway := &stubGateway{conf: &Confirmation{BookingID: "555", ConfirmationCode: "BK-123"}}
	extractor := &stubExtractor{byMessage: map[string]ExtractedFields{
		"My name is Lan and my number is 0905123456": {CustomerName: "Lan", CustomerPhone: "0905123456"},
		"tomorrow at 2pm": {Date: "tomorrow", Time: "2pm"},
	}}
	sess := newTestSession(catalog, gateway, extractor)
	ctx := context.Background()

	reply, err := sess.HandleMessage(ctx, "I'd like a haircut appointment")
	require.NoError(t, err)
	assert.Contains(t, reply, "Available Branches")
	assert.Contains(t, reply, "1. Downtown Spa")

	reply, err = sess.HandleMessage(ctx, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "Available Services")

	reply, err = sess.HandleMessage(ctx, "2")
	require.NoError(t, err)
	assert.Contains(t, reply, "your name and phone number")

	reply, err = sess.HandleMessage(ctx, "My name is Lan and my number is 0905123456")
	require.NoError(t, err)
	assert.Contains(t, reply, "still needed")

	reply, err = sess.HandleMessage(ctx, "tomorrow at 2pm")
	require.NoError(t, err)
	assert.Contains(t, reply, "type 'confirm'")

	reply, err = sess.HandleMessage(ctx, "confirm")
	require.NoError(t, err)
	assert.Contains(t, reply, "Booking confirmed")
	assert.Contains(t, reply, "BK-123")
	assert.True(t, sess.IsComplete())

	require.Len(t, gateway.reqs, 1)
	req := gateway.reqs[0]
	assert.Equal(t, "Lan", req.CustomerName)
	assert.Equal(t, "0905123456", req.CustomerPhone)
	assert.Equal(t, "10", req.BranchID)
	assert.Equal(t, "21", req.ServiceID)
	assert.Equal(t, "2026-09-03", req.Date)
	assert.Equal(t, "14:00", req.Time)
	assert.Equal(t, 1, req.PartySize)

	// Each list was fetched exactly once; selections resolved from cache.
	assert.Equal(t, 1, catalog.branchCalls)
	assert.Equal(t, 1, catalog.serviceCalls)
}

func TestSelectionByName(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches(), services: testServices()}
	sess := newTestSession(catalog, &stubGateway{}, &stubExtractor{})
	ctx := context.Background()

	_, err := sess.HandleMessage(ctx, "hi, I need an appointment")
	require.NoError(t, err)

	reply, err := sess.HandleMessage(ctx, "riverside salon please")
	require.NoError(t, err)
	assert.Contains(t, reply, "Available Services")

	snap := sess.Snapshot()
	assert.Equal(t, "11", snap.BranchID)
	assert.Equal(t, "Riverside Salon", snap.BranchName)
	assert.Nil(t, snap.BranchOptions)
}

func TestCompletionRequiresConfirmationCode(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches(), services: testServices()}
	gateway := &stubGateway{conf: &Confirmation{Message: "slot unavailable"}}
	sess := newTestSession(catalog, gateway, &stubExtractor{})
	ctx := context.Background()

	seedCompleteState(sess)

	reply, err := sess.HandleMessage(ctx, "confirm")
	require.NoError(t, err)
	assert.False(t, sess.IsComplete())
	assert.Contains(t, reply, "wasn't able to complete your booking")
	// The raw gateway message is never surfaced.
	assert.NotContains(t, reply, "slot unavailable")
}

func TestGatewayFailureRecoveryByKeyword(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStep     Step
		wantCleared  Field
		wantInReply  string
		keepsService bool
	}{
		{
			name:        "service error",
			err:         errors.New("salon: booking failed: invalid service"),
			wantStep:    StepQueryServices,
			wantCleared: FieldService,
			wantInReply: "issue with the service selection",
		},
		{
			name:        "branch error",
			err:         errors.New("salon: booking failed: unknown branch"),
			wantStep:    StepQueryBranches,
			wantCleared: FieldBranch,
			wantInReply: "issue with the branch selection",
		},
		{
			name:        "date error",
			err:         errors.New("salon: booking failed: date in the past"),
			wantStep:    StepCollectCustomerInfo,
			wantCleared: FieldDate,
			wantInReply: "booking date or time",
		},
		{
			name:        "other error",
			err:         errors.New("salon: booking failed: internal"),
			wantStep:    StepConfirmDetails,
			wantInReply: "try again",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &stubCatalog{branches: testBranches(), services: testServices()}
			gateway := &stubGateway{err: tt.err}
			sess := newTestSession(catalog, gateway, &stubExtractor{})
			seedCompleteState(sess)

			reply, err := sess.HandleMessage(context.Background(), "confirm")
			require.NoError(t, err)
			assert.Contains(t, reply, tt.wantInReply)
			assert.False(t, sess.IsComplete())

			snap := sess.Snapshot()
			assert.Equal(t, tt.wantStep, snap.CurrentStep)
			assert.Empty(t, snap.ErrorMessage)
			if tt.wantCleared != "" {
				assert.Empty(t, snap.fieldValue(tt.wantCleared))
			}
		})
	}
}

func TestRetryAfterServiceFailure(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches(), services: testServices()}
	gateway := &stubGateway{err: errors.New("salon: booking failed: invalid service")}
	extractor := &stubExtractor{}
	sess := newTestSession(catalog, gateway, extractor)
	ctx := context.Background()

	seedCompleteState(sess)

	_, err := sess.HandleMessage(ctx, "confirm")
	require.NoError(t, err)

	// The cleared service routes the next turn back to the service list.
	reply, err := sess.HandleMessage(ctx, "let me pick again")
	require.NoError(t, err)
	assert.Contains(t, reply, "Available Services")

	gateway.err = nil
	gateway.conf = &Confirmation{ConfirmationCode: "BK-77"}

	_, err = sess.HandleMessage(ctx, "1")
	require.NoError(t, err)

	reply, err = sess.HandleMessage(ctx, "confirm")
	require.NoError(t, err)
	assert.Contains(t, reply, "Booking confirmed")
	assert.True(t, sess.IsComplete())
}

func TestEditMidFlow(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches(), services: testServices()}
	extractor := &stubExtractor{byMessage: map[string]ExtractedFields{
		"0912345678": {CustomerPhone: "0912345678"},
	}}
	sess := newTestSession(catalog, &stubGateway{}, extractor)
	ctx := context.Background()

	seedCompleteState(sess)

	reply, err := sess.HandleMessage(ctx, "edit phone")
	require.NoError(t, err)
	assert.Contains(t, reply, "update your phone")

	snap := sess.Snapshot()
	assert.Empty(t, snap.CustomerPhone)
	assert.Contains(t, snap.MissingFields, FieldCustomerPhone)

	reply, err = sess.HandleMessage(ctx, "0912345678")
	require.NoError(t, err)
	assert.Contains(t, reply, "Please confirm your booking details")

	snap = sess.Snapshot()
	assert.Equal(t, "0912345678", snap.CustomerPhone)
}

func TestEditWithoutTarget(t *testing.T) {
	sess := newTestSession(&stubCatalog{}, &stubGateway{}, &stubExtractor{})

	reply, err := sess.HandleMessage(context.Background(), "I want to change something")
	require.NoError(t, err)
	assert.Contains(t, reply, "What would you like to change?")
}

func TestEditValueMentioningConfirmDoesNotBook(t *testing.T) {
	gateway := &stubGateway{conf: &Confirmation{ConfirmationCode: "BK-123"}}
	extractor := &stubExtractor{byMessage: map[string]ExtractedFields{
		"confirm, my phone is 0912345678": {CustomerPhone: "0912345678"},
	}}
	sess := newTestSession(&stubCatalog{}, gateway, extractor)
	ctx := context.Background()

	seedCompleteState(sess)

	_, err := sess.HandleMessage(ctx, "edit phone")
	require.NoError(t, err)

	// The replacement value mentions "confirm", but an edit turn must not
	// submit the booking; the user confirms against the updated details.
	reply, err := sess.HandleMessage(ctx, "confirm, my phone is 0912345678")
	require.NoError(t, err)
	assert.Contains(t, reply, "Please confirm your booking details")
	assert.Empty(t, gateway.reqs)

	snap := sess.Snapshot()
	assert.Equal(t, "0912345678", snap.CustomerPhone)
	assert.False(t, snap.EditMode)

	reply, err = sess.HandleMessage(ctx, "confirm booking")
	require.NoError(t, err)
	assert.Contains(t, reply, "Booking confirmed")
	require.Len(t, gateway.reqs, 1)
}

func TestEditWithoutTargetShowsSummaryOnce(t *testing.T) {
	sess := newTestSession(&stubCatalog{}, &stubGateway{}, &stubExtractor{})
	ctx := context.Background()
	seedCompleteState(sess)

	// The first unfocused edit leads with the current values.
	reply, err := sess.HandleMessage(ctx, "I want to change something")
	require.NoError(t, err)
	assert.Contains(t, reply, "Current booking information")
	assert.Contains(t, reply, "What would you like to change?")

	// Later ones go straight to the edit menu.
	reply, err = sess.HandleMessage(ctx, "change something else")
	require.NoError(t, err)
	assert.NotContains(t, reply, "Current booking information")
	assert.Contains(t, reply, "What would you like to change?")
}

func TestShowSummary(t *testing.T) {
	sess := newTestSession(&stubCatalog{}, &stubGateway{}, &stubExtractor{})
	seedCompleteState(sess)

	reply, err := sess.HandleMessage(context.Background(), "show me a summary")
	require.NoError(t, err)
	assert.Contains(t, reply, "Current booking information")
	assert.Contains(t, reply, "Lan")
	assert.Contains(t, reply, "Downtown Spa")
	assert.Contains(t, reply, "start over")

	// Asking again yields the same summary without side effects.
	again, err := sess.HandleMessage(context.Background(), "show me a summary")
	require.NoError(t, err)
	assert.Equal(t, reply, again)
}

func TestStartOver(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches()}
	sess := newTestSession(catalog, &stubGateway{}, &stubExtractor{})
	ctx := context.Background()

	seedCompleteState(sess)

	reply, err := sess.HandleMessage(ctx, "start over")
	require.NoError(t, err)
	assert.Contains(t, reply, "start over")

	snap := sess.Snapshot()
	assert.Empty(t, snap.CustomerName)
	assert.Empty(t, snap.BranchID)
	assert.Equal(t, StepStart, snap.CurrentStep)
	// History survives the reset.
	assert.NotEmpty(t, snap.History)
}

func TestCancel(t *testing.T) {
	sess := newTestSession(&stubCatalog{}, &stubGateway{}, &stubExtractor{})

	reply, err := sess.HandleMessage(context.Background(), "cancel")
	require.NoError(t, err)
	assert.Contains(t, reply, "cancelled")
	assert.True(t, sess.IsCancelled())
}

func TestExtractorFailureDegradesGracefully(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches()}
	extractor := &stubExtractor{err: errors.New("model unavailable")}
	sess := newTestSession(catalog, &stubGateway{}, extractor)

	reply, err := sess.HandleMessage(context.Background(), "my name is Lan")
	require.NoError(t, err)
	assert.Contains(t, reply, "Available Branches")
	assert.NotContains(t, reply, "model unavailable")
}

func TestExtractorNeverOverwritesWithUnknown(t *testing.T) {
	catalog := &stubCatalog{branches: testBranches()}
	extractor := &stubExtractor{byMessage: map[string]ExtractedFields{
		"anything else": {CustomerName: "Unknown", CustomerPhone: ""},
	}}
	sess := newTestSession(catalog, &stubGateway{}, extractor)
	seedCompleteState(sess)

	_, err := sess.HandleMessage(context.Background(), "anything else")
	require.NoError(t, err)

	snap := sess.Snapshot()
	assert.Equal(t, "Lan", snap.CustomerName)
	assert.Equal(t, "0905123456", snap.CustomerPhone)
}

func TestDefaultIDsUsedWhenUnset(t *testing.T) {
	gateway := &stubGateway{conf: &Confirmation{ConfirmationCode: "BK-9"}}
	sess := NewSession(SessionConfig{
		Catalog:          &stubCatalog{},
		Gateway:          gateway,
		Extractor:        &stubExtractor{},
		Logger:           logging.New("error"),
		DefaultBranchID:  "8850",
		DefaultServiceID: "257170",
		Now:              func() time.Time { return fakeNow },
	})

	// Only branch/service unset; identity, date and time present.
	sess.mu.Lock()
	st := sess.state
	st.CustomerName = "Lan"
	st.CustomerPhone = "0905123456"
	st.Date = "tomorrow"
	st.Time = "2pm"
	st.recomputeMissing()
	sess.createBooking(context.Background())
	sess.mu.Unlock()

	require.Len(t, gateway.reqs, 1)
	assert.Equal(t, "8850", gateway.reqs[0].BranchID)
	assert.Equal(t, "257170", gateway.reqs[0].ServiceID)
}

func TestCatalogErrorYieldsApology(t *testing.T) {
	catalog := &stubCatalog{branchErr: errors.New("salon: request failed: 500")}
	sess := newTestSession(catalog, &stubGateway{}, &stubExtractor{})

	reply, err := sess.HandleMessage(context.Background(), "book me in")
	require.NoError(t, err)
	assert.Contains(t, reply, "couldn't reach our branch directory")
	assert.NotContains(t, reply, "500")
}

// seedCompleteState fills every required field as if the dialogue already
// collected them.
func seedCompleteState(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	st := sess.state
	st.CustomerName = "Lan"
	st.CustomerPhone = "0905123456"
	st.BranchID = "10"
	st.BranchName = "Downtown Spa"
	st.ServiceID = "20"
	st.ServiceName = "Haircut"
	st.Date = "tomorrow"
	st.Time = "2pm"
	st.recomputeMissing()
}
