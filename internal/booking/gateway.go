package booking

import "context"

// CatalogGateway fetches the salon catalog used to present branch and
// service choices. Implementations must return an empty slice, not an
// error, when nothing is available.
type CatalogGateway interface {
	ListBranches(ctx context.Context) ([]Option, error)
	ListServices(ctx context.Context) ([]Option, error)
}

// Request carries a finalized booking to the external gateway.
type Request struct {
	CustomerName  string
	CustomerPhone string
	PartySize     int
	BranchID      string
	ServiceID     string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM, 24h
}

// Confirmation is a successful booking outcome. A booking only counts as
// created when the gateway returned a non-empty confirmation code.
type Confirmation struct {
	BookingID        string
	ConfirmationCode string
	Message          string
}

// BookingGateway submits finalized bookings to the salon backend.
type BookingGateway interface {
	CreateBooking(ctx context.Context, req Request) (*Confirmation, error)
}

// ExtractedFields is the partial field set returned by the language-model
// extractor. Empty values mean "not mentioned".
type ExtractedFields struct {
	CustomerName  string
	CustomerPhone string
	Date          string
	Time          string
}

// FieldExtractor turns free text into a partial set of booking fields.
// It is non-deterministic; callers must tolerate empty or contradictory
// output. Implementations degrade malformed model output to an empty
// result rather than returning an error.
type FieldExtractor interface {
	Extract(ctx context.Context, message string, known ExtractedFields) (ExtractedFields, error)
}
