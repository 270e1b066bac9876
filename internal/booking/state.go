// Package booking implements the appointment booking dialogue: a typed
// session state, deterministic intent and selection matching, and the
// per-message state machine that collects booking fields and submits them
// to the salon backend.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// Step identifies where a booking dialogue currently is.
type Step string

const (
	StepStart               Step = "start"
	StepExtractInfo         Step = "extract_info"
	StepHandleUserIntent    Step = "handle_user_intent"
	StepShowSummary         Step = "show_summary"
	StepHandleEdit          Step = "handle_edit"
	StepQueryBranches       Step = "query_branches"
	StepQueryServices       Step = "query_services"
	StepCollectCustomerInfo Step = "collect_customer_info"
	StepConfirmDetails      Step = "confirm_details"
	StepCreateBooking       Step = "create_booking"
	StepHandleError         Step = "handle_error"
	StepComplete            Step = "complete"
	StepCancelled           Step = "cancelled"
)

// Field names one of the six required booking fields.
type Field string

const (
	FieldCustomerName  Field = "customer_name"
	FieldCustomerPhone Field = "customer_mobile"
	FieldBranch        Field = "branch_id"
	FieldService       Field = "service_id"
	FieldDate          Field = "booking_date"
	FieldTime          Field = "booking_time"
	FieldPartySize     Field = "total_customer"
)

// requiredFields is the fixed set that must be present before a booking
// can be submitted, in presentation order.
var requiredFields = []Field{
	FieldCustomerName,
	FieldCustomerPhone,
	FieldBranch,
	FieldService,
	FieldDate,
	FieldTime,
}

// Label returns the user-facing name of a field.
func (f Field) Label() string {
	switch f {
	case FieldCustomerName:
		return "Name"
	case FieldCustomerPhone:
		return "Phone"
	case FieldBranch:
		return "Branch"
	case FieldService:
		return "Service"
	case FieldDate:
		return "Date"
	case FieldTime:
		return "Time"
	case FieldPartySize:
		return "Number of people"
	}
	return string(f)
}

// Message roles in the conversation log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry in a session's conversation log.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// OptionAttr is a display attribute of a presented option ("Address: …").
type OptionAttr struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Option is one candidate in a presented branch or service list.
type Option struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Attrs []OptionAttr `json:"attrs,omitempty"`
}

// State is the mutable record of one booking dialogue. All fields are
// optional until collected; MissingFields and IsComplete are derived and
// must only be updated through recomputeMissing and the booking handler.
type State struct {
	SessionID string `json:"session_id"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_mobile,omitempty"`
	BranchID      string `json:"branch_id,omitempty"`
	BranchName    string `json:"branch_name,omitempty"`
	ServiceID     string `json:"service_id,omitempty"`
	ServiceName   string `json:"service_name,omitempty"`
	PartySize     int    `json:"total_customer"`
	Date          string `json:"booking_date,omitempty"`
	Time          string `json:"booking_time,omitempty"`

	BranchOptions  []Option `json:"branch_options,omitempty"`
	ServiceOptions []Option `json:"service_options,omitempty"`

	History []Message `json:"history"`

	CurrentStep   Step    `json:"current_step"`
	MissingFields []Field `json:"missing_fields"`
	IsComplete    bool    `json:"is_complete"`
	LastIntent    Intent  `json:"last_intent,omitempty"`
	EditMode      bool    `json:"edit_mode"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	SummaryShown  bool    `json:"summary_shown"`

	StartedAt time.Time `json:"started_at"`
}

// NewState initializes an empty booking state. A sessionID is generated
// when none is supplied.
func NewState(sessionID string) *State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s := &State{
		SessionID:   sessionID,
		PartySize:   1,
		CurrentStep: StepStart,
		StartedAt:   time.Now().UTC(),
	}
	s.recomputeMissing()
	return s
}

// addMessage appends to the conversation log. The log is append-only and
// never reordered.
func (s *State) addMessage(role, text string) {
	s.History = append(s.History, Message{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

// latestMessage returns the most recent log entry with the given role.
func (s *State) latestMessage(role string) (Message, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == role {
			return s.History[i], true
		}
	}
	return Message{}, false
}

// fieldValue returns the current value of a required field.
func (s *State) fieldValue(f Field) string {
	switch f {
	case FieldCustomerName:
		return s.CustomerName
	case FieldCustomerPhone:
		return s.CustomerPhone
	case FieldBranch:
		return s.BranchID
	case FieldService:
		return s.ServiceID
	case FieldDate:
		return s.Date
	case FieldTime:
		return s.Time
	}
	return ""
}

// recomputeMissing derives MissingFields from the current field values.
// It never sets IsComplete: true completion is granted only by a confirmed
// booking, but any missing field revokes it.
func (s *State) recomputeMissing() {
	missing := make([]Field, 0, len(requiredFields))
	for _, f := range requiredFields {
		if s.fieldValue(f) == "" {
			missing = append(missing, f)
		}
	}
	s.MissingFields = missing
	if len(missing) > 0 {
		s.IsComplete = false
	}
}

// clearField resets a field and its paired options cache.
func (s *State) clearField(f Field) {
	switch f {
	case FieldCustomerName:
		s.CustomerName = ""
	case FieldCustomerPhone:
		s.CustomerPhone = ""
	case FieldBranch:
		s.BranchID = ""
		s.BranchName = ""
		s.BranchOptions = nil
	case FieldService:
		s.ServiceID = ""
		s.ServiceName = ""
		s.ServiceOptions = nil
	case FieldDate:
		s.Date = ""
	case FieldTime:
		s.Time = ""
	case FieldPartySize:
		s.PartySize = 1
	}
}

// reset clears every booking field while preserving the session identity
// and the conversation log.
func (s *State) reset() {
	sessionID := s.SessionID
	history := s.History
	startedAt := s.StartedAt

	*s = *NewState(sessionID)
	s.History = history
	s.StartedAt = startedAt
}

// optionName resolves an id against an options cache, falling back to the
// id itself when the cache has been cleared.
func optionName(options []Option, id string) string {
	for _, opt := range options {
		if opt.ID == id {
			return opt.Name
		}
	}
	return ""
}
