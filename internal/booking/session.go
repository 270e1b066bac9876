package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

// SessionConfig carries the collaborators a Session needs. Catalog,
// Gateway, and Extractor are required.
type SessionConfig struct {
	Catalog   CatalogGateway
	Gateway   BookingGateway
	Extractor FieldExtractor
	Logger    *logging.Logger

	// Fallback ids used when CreateBooking proceeds without an explicit
	// selection, so the conversation never dead-ends on a missing choice.
	DefaultBranchID  string
	DefaultServiceID string

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Session owns one booking dialogue. Every inbound user message drives one
// synchronous tick that mutates the state in place and produces the
// assistant reply. Ticks for the same session are serialized; distinct
// sessions are independent.
type Session struct {
	mu    sync.Mutex
	state *State

	catalog   CatalogGateway
	gateway   BookingGateway
	extractor FieldExtractor
	logger    *logging.Logger

	defaultBranchID  string
	defaultServiceID string
	now              func() time.Time
}

// NewSession creates a session with a fresh state.
func NewSession(cfg SessionConfig) *Session {
	return NewSessionWithState(cfg, NewState(""))
}

// NewSessionWithState resumes a session from a previously captured state.
func NewSessionWithState(cfg SessionConfig, state *State) *Session {
	if cfg.Catalog == nil {
		panic("booking: catalog gateway cannot be nil")
	}
	if cfg.Gateway == nil {
		panic("booking: booking gateway cannot be nil")
	}
	if cfg.Extractor == nil {
		panic("booking: field extractor cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if state == nil {
		state = NewState("")
	}
	return &Session{
		state:            state,
		catalog:          cfg.Catalog,
		gateway:          cfg.Gateway,
		extractor:        cfg.Extractor,
		logger:           cfg.Logger,
		defaultBranchID:  cfg.DefaultBranchID,
		defaultServiceID: cfg.DefaultServiceID,
		now:              cfg.Now,
	}
}

// SessionID returns the session's stable identifier.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// StartedAt returns when the session was created, used by the idle sweep.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.StartedAt
}

// IsComplete reports whether the booking was confirmed by the gateway.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsComplete
}

// IsCancelled reports whether the user cancelled the dialogue.
func (s *Session) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentStep == StepCancelled
}

// Snapshot returns a copy of the current state for persistence or
// inspection. The copy shares no mutable structure with the live state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := *s.state
	snap.BranchOptions = append([]Option(nil), s.state.BranchOptions...)
	snap.ServiceOptions = append([]Option(nil), s.state.ServiceOptions...)
	snap.History = append([]Message(nil), s.state.History...)
	snap.MissingFields = append([]Field(nil), s.state.MissingFields...)
	return snap
}

// HandleMessage runs one state-machine tick for an inbound user message and
// returns the assistant reply for this turn.
func (s *Session) HandleMessage(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	historyMark := len(st.History)

	st.addMessage(RoleUser, text)

	intent := ClassifyIntent(text)
	st.LastIntent = intent

	// Control intents pre-empt extraction so commands are never misread
	// as booking data.
	switch intent {
	case IntentEdit:
		s.handleEdit(text)
	case IntentShowSummary:
		s.showSummary()
	case IntentStartOver:
		s.startOver()
	case IntentConfirm:
		s.confirmDetails(ctx, true)
	case IntentCancel:
		s.cancel()
	default:
		s.provideInfo(ctx, text)
	}

	return s.replySince(historyMark), nil
}

// replySince joins the assistant messages appended during this tick. When a
// tick produced only system notes the previous assistant message stands.
func (s *Session) replySince(mark int) string {
	var parts []string
	for _, msg := range s.state.History[mark:] {
		if msg.Role == RoleAssistant {
			parts = append(parts, msg.Text)
		}
	}
	if len(parts) == 0 {
		if last, ok := s.state.latestMessage(RoleAssistant); ok {
			return last.Text
		}
		return ""
	}
	return strings.Join(parts, "\n\n")
}

// provideInfo handles a plain informational message: a pending option
// selection first, then language-model field extraction, then routing to
// the next collection step.
func (s *Session) provideInfo(ctx context.Context, text string) {
	st := s.state
	st.CurrentStep = StepExtractInfo

	matched := false
	if len(st.BranchOptions) > 0 && st.BranchID == "" {
		if opt := MatchSelection(text, st.BranchOptions); opt != nil {
			s.selectBranch(opt)
			matched = true
		}
	}
	if !matched && len(st.ServiceOptions) > 0 && st.ServiceID == "" {
		if opt := MatchSelection(text, st.ServiceOptions); opt != nil {
			s.selectService(opt)
			matched = true
		}
	}
	if !matched {
		s.extract(ctx, text)
	}

	st.recomputeMissing()
	s.route(ctx)
}

func (s *Session) selectBranch(opt *Option) {
	st := s.state
	st.BranchID = opt.ID
	st.BranchName = opt.Name
	st.BranchOptions = nil
	st.addMessage(RoleSystem, "Selected branch: "+opt.Name)
	st.recomputeMissing()
}

func (s *Session) selectService(opt *Option) {
	st := s.state
	st.ServiceID = opt.ID
	st.ServiceName = opt.Name
	st.ServiceOptions = nil
	st.addMessage(RoleSystem, "Selected service: "+opt.Name)
	st.recomputeMissing()
}

// extract invokes the field extractor and merges any usable values.
// Extraction failures degrade to "nothing extracted".
func (s *Session) extract(ctx context.Context, text string) {
	st := s.state

	known := ExtractedFields{
		CustomerName:  st.CustomerName,
		CustomerPhone: st.CustomerPhone,
		Date:          st.Date,
		Time:          st.Time,
	}
	fields, err := s.extractor.Extract(ctx, text, known)
	if err != nil {
		s.logger.Warn("booking: field extraction failed", "session_id", st.SessionID, "error", err)
		return
	}

	if usable(fields.CustomerName) {
		st.CustomerName = fields.CustomerName
	}
	if usable(fields.CustomerPhone) {
		st.CustomerPhone = fields.CustomerPhone
	}
	if usable(fields.Date) {
		st.Date = fields.Date
	}
	if usable(fields.Time) {
		st.Time = fields.Time
	}
}

// usable filters out the placeholder values the model echoes back.
func usable(v string) bool {
	return v != "" && !strings.EqualFold(v, "unknown")
}

// route picks the next collection step with a fixed precedence: branch,
// then service, then customer identity, then confirmation.
func (s *Session) route(ctx context.Context) {
	st := s.state
	switch {
	case st.BranchID == "":
		s.queryBranches(ctx)
	case st.ServiceID == "":
		s.queryServices(ctx)
	case st.CustomerName == "" || st.CustomerPhone == "":
		s.collectCustomerInfo(ctx)
	default:
		s.confirmDetails(ctx, false)
	}
}

func (s *Session) queryBranches(ctx context.Context) {
	st := s.state
	st.CurrentStep = StepQueryBranches

	// A selection against the cached list resolves without refetching.
	if len(st.BranchOptions) > 0 && st.BranchID == "" {
		if msg, ok := st.latestMessage(RoleUser); ok {
			if opt := MatchSelection(msg.Text, st.BranchOptions); opt != nil {
				s.selectBranch(opt)
				return
			}
		}
	}

	branches, err := s.catalog.ListBranches(ctx)
	if err != nil {
		s.logger.Error("booking: failed to list branches", "session_id", st.SessionID, "error", err)
		st.addMessage(RoleAssistant,
			"I'm sorry, I couldn't reach our branch directory just now. Please try again in a moment.")
		return
	}
	if len(branches) == 0 {
		st.addMessage(RoleAssistant,
			"I couldn't find any salon branches. Could you please provide a location or branch name you're interested in?")
		return
	}

	st.BranchOptions = branches
	st.addMessage(RoleAssistant,
		"Here are some salon branches you can choose from:\n\n"+
			renderOptionList("Available Branches", branches)+
			"\nPlease let me know which branch you'd prefer by name or number.")
}

func (s *Session) queryServices(ctx context.Context) {
	st := s.state
	st.CurrentStep = StepQueryServices

	if len(st.ServiceOptions) > 0 && st.ServiceID == "" {
		if msg, ok := st.latestMessage(RoleUser); ok {
			if opt := MatchSelection(msg.Text, st.ServiceOptions); opt != nil {
				s.selectService(opt)
				return
			}
		}
	}

	services, err := s.catalog.ListServices(ctx)
	if err != nil {
		s.logger.Error("booking: failed to list services", "session_id", st.SessionID, "error", err)
		st.addMessage(RoleAssistant,
			"I'm sorry, I couldn't load our service menu just now. Please try again in a moment.")
		return
	}
	if len(services) == 0 {
		st.addMessage(RoleAssistant,
			"I couldn't find any services. Could you please tell me what kind of beauty service you're interested in?")
		return
	}

	st.ServiceOptions = services
	st.addMessage(RoleAssistant,
		"Here are some services you can choose from:\n\n"+
			renderOptionList("Available Services", services)+
			"\nPlease let me know which service you'd like by name or number.")
}

func (s *Session) collectCustomerInfo(ctx context.Context) {
	st := s.state
	st.CurrentStep = StepCollectCustomerInfo

	var missing []string
	if st.CustomerName == "" {
		missing = append(missing, "name")
	}
	if st.CustomerPhone == "" {
		missing = append(missing, "phone number")
	}

	if len(missing) == 0 {
		// Identity already collected; no extra turn consumed.
		s.confirmDetails(ctx, false)
		return
	}

	st.addMessage(RoleAssistant,
		"To book your appointment, I need your "+strings.Join(missing, " and ")+
			". Could you please provide this information?")
}

// confirmDetails renders the confirmation summary. When every field is
// present and the user's latest message carries a confirmation trigger, the
// booking is created within the same turn.
func (s *Session) confirmDetails(ctx context.Context, viaConfirmIntent bool) {
	st := s.state
	st.CurrentStep = StepConfirmDetails
	st.recomputeMissing()

	// Mid-edit, a message mentioning "confirm" is carrying the replacement
	// value; the booking waits for an explicit confirm turn against the
	// re-rendered details.
	if len(st.MissingFields) == 0 && (viaConfirmIntent || (!st.EditMode && s.latestUserConfirmed())) {
		st.EditMode = false
		s.createBooking(ctx)
		return
	}

	st.EditMode = false
	st.addMessage(RoleAssistant, renderConfirmDetails(st))
}

func (s *Session) latestUserConfirmed() bool {
	msg, ok := s.state.latestMessage(RoleUser)
	if !ok {
		return false
	}
	if ClassifyIntent(msg.Text) == IntentConfirm {
		return true
	}
	return strings.Contains(strings.ToLower(msg.Text), "confirm")
}

// createBooking submits the booking synchronously. Unset branch/service
// fall back to the configured defaults rather than failing. Success is
// strictly a non-empty confirmation code from the gateway.
func (s *Session) createBooking(ctx context.Context) {
	st := s.state
	st.CurrentStep = StepCreateBooking

	apiDate, err := NormalizeDate(st.Date, s.now())
	if err != nil {
		s.failBooking(ctx, "the booking date could not be understood")
		return
	}
	apiTime, err := NormalizeTime(st.Time)
	if err != nil {
		s.failBooking(ctx, "the booking time could not be understood")
		return
	}

	branchID := st.BranchID
	if branchID == "" {
		branchID = s.defaultBranchID
	}
	serviceID := st.ServiceID
	if serviceID == "" {
		serviceID = s.defaultServiceID
	}

	req := Request{
		CustomerName:  st.CustomerName,
		CustomerPhone: st.CustomerPhone,
		PartySize:     st.PartySize,
		BranchID:      branchID,
		ServiceID:     serviceID,
		Date:          apiDate,
		Time:          apiTime,
	}

	s.logger.Info("booking: submitting booking",
		"session_id", st.SessionID,
		"branch_id", branchID,
		"service_id", serviceID,
		"date", apiDate,
		"time", apiTime,
	)

	conf, err := s.gateway.CreateBooking(ctx, req)
	if err != nil {
		s.failBooking(ctx, err.Error())
		return
	}
	if conf == nil || conf.ConfirmationCode == "" {
		msg := "the booking service did not confirm the appointment"
		if conf != nil && conf.Message != "" {
			msg = conf.Message
		}
		s.failBooking(ctx, msg)
		return
	}

	st.Date = apiDate
	st.Time = apiTime
	st.IsComplete = true
	st.CurrentStep = StepComplete
	st.addMessage(RoleAssistant, renderConfirmation(st, conf))
}

// failBooking records the failure reason and runs error recovery in the
// same turn. The reason is kept for keyword-based recovery routing; the
// user only ever sees the apology, never the raw error.
func (s *Session) failBooking(ctx context.Context, reason string) {
	st := s.state
	st.ErrorMessage = reason
	s.logger.Warn("booking: booking failed", "session_id", st.SessionID, "reason", reason)
	st.addMessage(RoleAssistant,
		"I'm sorry, I wasn't able to complete your booking. Let me help you fix the issue and try again.")
	s.handleError(ctx)
}

// handleError inspects the recorded failure reason and routes a targeted
// recovery, always clearing the reason before the turn ends.
func (s *Session) handleError(ctx context.Context) {
	st := s.state
	st.CurrentStep = StepHandleError
	reason := strings.ToLower(st.ErrorMessage)

	switch {
	case strings.Contains(reason, "service"):
		st.clearField(FieldService)
		st.recomputeMissing()
		st.addMessage(RoleAssistant,
			"It seems there was an issue with the service selection. Let me help you choose an available service.")
		st.CurrentStep = StepQueryServices
	case strings.Contains(reason, "branch"):
		st.clearField(FieldBranch)
		st.recomputeMissing()
		st.addMessage(RoleAssistant,
			"It seems there was an issue with the branch selection. Let me help you choose an available branch.")
		st.CurrentStep = StepQueryBranches
	case strings.Contains(reason, "date") || strings.Contains(reason, "time"):
		st.clearField(FieldDate)
		st.clearField(FieldTime)
		st.recomputeMissing()
		st.addMessage(RoleAssistant,
			"It seems there was an issue with the booking date or time. Please provide a different date or time for your appointment.")
		st.CurrentStep = StepCollectCustomerInfo
	default:
		st.addMessage(RoleAssistant,
			"Let's try again with your booking. Please confirm your information again.")
		st.CurrentStep = StepConfirmDetails
	}

	st.ErrorMessage = ""
}

// editMappings maps edit keywords to the field they clear and the step the
// dialogue resumes at. First match wins.
var editMappings = []struct {
	keyword string
	field   Field
	next    Step
}{
	{"name", FieldCustomerName, StepCollectCustomerInfo},
	{"phone", FieldCustomerPhone, StepCollectCustomerInfo},
	{"mobile", FieldCustomerPhone, StepCollectCustomerInfo},
	{"branch", FieldBranch, StepQueryBranches},
	{"location", FieldBranch, StepQueryBranches},
	{"salon", FieldBranch, StepQueryBranches},
	{"service", FieldService, StepQueryServices},
	{"treatment", FieldService, StepQueryServices},
	{"date", FieldDate, StepCollectCustomerInfo},
	{"time", FieldTime, StepCollectCustomerInfo},
	{"people", FieldPartySize, StepCollectCustomerInfo},
	{"customer", FieldPartySize, StepCollectCustomerInfo},
}

func (s *Session) handleEdit(text string) {
	st := s.state
	st.CurrentStep = StepHandleEdit
	st.EditMode = true

	lower := strings.ToLower(text)
	for _, m := range editMappings {
		if !strings.Contains(lower, m.keyword) {
			continue
		}
		st.clearField(m.field)
		st.recomputeMissing()
		st.CurrentStep = m.next
		st.addMessage(RoleAssistant, "I'll help you update your "+strings.ToLower(m.field.Label())+".")
		return
	}

	// No recognizable target. Lead with the current values the first time
	// so the user can see what there is to change.
	if !st.SummaryShown {
		st.addMessage(RoleAssistant, renderSummary(st))
		st.SummaryShown = true
	}
	st.addMessage(RoleAssistant, editOptionsText)
	st.CurrentStep = StepShowSummary
}

func (s *Session) showSummary() {
	st := s.state
	st.CurrentStep = StepShowSummary
	st.recomputeMissing()
	st.addMessage(RoleAssistant, renderSummary(st))
	st.SummaryShown = true
}

func (s *Session) startOver() {
	st := s.state
	st.reset()
	st.addMessage(RoleAssistant, "Let's start over with your booking. What would you like to book?")
	st.CurrentStep = StepStart
}

func (s *Session) cancel() {
	st := s.state
	st.addMessage(RoleAssistant,
		"Your booking has been cancelled. Feel free to start a new booking anytime!")
	st.CurrentStep = StepCancelled
}
