// Package assistant orchestrates the conversational concierge: it decides
// whether an inbound message belongs to a live booking dialogue, starts one
// when the customer asks to book, and otherwise answers beauty questions
// grounded in the salon catalog.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/easysalon/salon-concierge/internal/booking"
	"github.com/easysalon/salon-concierge/internal/observability/metrics"
	"github.com/easysalon/salon-concierge/pkg/logging"
)

var tracer = otel.Tracer("concierge.internal.assistant")

const bookingFailureReply = "I'm sorry, something went wrong with your booking. Let's start fresh: just tell me what you'd like to book."

const qaSystemPrompt = "You are a friendly beauty salon concierge. Answer questions about beauty treatments, skincare, and hair care concisely and warmly. When catalog entries are provided, prefer them over general knowledge. If the customer seems interested in a treatment, gently offer to book an appointment. Never give medical advice."

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service routes conversation turns between the booking state machine,
// availability and booking lookups, and the catalog-grounded Q&A flow.
type Service struct {
	registry     *booking.Registry
	snapshots    *booking.SnapshotStore
	chat         chatClient
	search       CatalogSearcher
	availability AvailabilityChecker
	bookings     BookingFinder
	extractor    booking.FieldExtractor
	model        string
	logger       *logging.Logger
	metrics      *metrics.ConciergeMetrics
	now          func() time.Time
}

// Config carries the Service collaborators. Registry and Chat are
// required; everything else is optional and its flow is skipped when
// absent.
type Config struct {
	Registry     *booking.Registry
	Snapshots    *booking.SnapshotStore
	Chat         chatClient
	Search       CatalogSearcher
	Availability AvailabilityChecker
	Bookings     BookingFinder
	Extractor    booking.FieldExtractor
	Model        string
	Logger       *logging.Logger
	Metrics      *metrics.ConciergeMetrics

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// New creates the assistant service.
func New(cfg Config) *Service {
	if cfg.Registry == nil {
		panic("assistant: booking registry cannot be nil")
	}
	if cfg.Chat == nil {
		panic("assistant: chat client cannot be nil")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		registry:     cfg.Registry,
		snapshots:    cfg.Snapshots,
		chat:         cfg.Chat,
		search:       cfg.Search,
		availability: cfg.Availability,
		bookings:     cfg.Bookings,
		extractor:    cfg.Extractor,
		model:        cfg.Model,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		now:          cfg.Now,
	}
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Booking   bool      `json:"booking"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleTurn processes one inbound message. A missing sessionID starts a
// fresh conversation.
func (s *Service) HandleTurn(ctx context.Context, sessionID, message string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "assistant.turn")
	defer span.End()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("concierge.session_id", sessionID))

	started := time.Now()
	reply, kind := s.dispatch(ctx, sessionID, message)
	s.metrics.ObserveTurnLatency(kind, time.Since(started).Seconds())
	s.metrics.ObserveTurn(string(booking.ClassifyIntent(message)), kind)
	s.metrics.SetActiveSessions(s.registry.Len())

	return &Reply{
		SessionID: sessionID,
		Message:   reply,
		Booking:   kind == "booking",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *Service) dispatch(ctx context.Context, sessionID, message string) (reply, kind string) {
	sess, live := s.liveSession(ctx, sessionID)

	if !live {
		switch {
		case matchGreeting(message):
			return greetingReply, "greeting"
		case matchGoodbye(message):
			return goodbyeReply, "greeting"
		case s.bookings != nil && isBookingLookup(message):
			return s.answerLookup(ctx, message), "lookup"
		case s.availability != nil && isAvailabilityQuery(message):
			return s.answerAvailability(ctx, message), "availability"
		case !s.wantsBooking(ctx, message):
			return s.answerQuestion(ctx, message), "qa"
		}
		sess = s.registry.GetOrCreate(sessionID)
	}

	return s.bookingTurn(ctx, sess, message), "booking"
}

// liveSession finds the booking session for an id, restoring one from a
// snapshot when the registry lost it (e.g. after a restart).
func (s *Service) liveSession(ctx context.Context, sessionID string) (*booking.Session, bool) {
	if sess, ok := s.registry.Get(sessionID); ok {
		return sess, true
	}
	if s.snapshots == nil {
		return nil, false
	}

	state, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("assistant: failed to load session snapshot", "session_id", sessionID, "error", err)
		return nil, false
	}
	if state == nil || state.IsComplete || state.CurrentStep == booking.StepCancelled {
		return nil, false
	}
	return s.registry.Restore(state), true
}

// bookingTurn runs one state-machine tick and manages the session
// lifecycle around it. An unexpected failure, panics included, abandons
// the session so the customer is never stuck in a half-mutated dialogue.
func (s *Service) bookingTurn(ctx context.Context, sess *booking.Session, message string) (out string) {
	sessionID := sess.SessionID()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("assistant: booking turn panicked", "session_id", sessionID, "panic", r)
			s.dropSession(ctx, sessionID)
			s.metrics.ObserveBooking("error")
			out = bookingFailureReply
		}
	}()

	reply, err := sess.HandleMessage(ctx, message)
	if err != nil {
		s.logger.Error("assistant: booking turn failed", "session_id", sessionID, "error", err)
		s.dropSession(ctx, sessionID)
		s.metrics.ObserveBooking("error")
		return bookingFailureReply
	}

	switch {
	case sess.IsComplete():
		s.dropSession(ctx, sessionID)
		s.metrics.ObserveBooking("confirmed")
	case sess.IsCancelled():
		s.dropSession(ctx, sessionID)
		s.metrics.ObserveBooking("cancelled")
	default:
		s.saveSnapshot(ctx, sess)
	}
	return reply
}

func (s *Service) dropSession(ctx context.Context, sessionID string) {
	s.registry.Delete(sessionID)
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("assistant: failed to delete session snapshot", "session_id", sessionID, "error", err)
		}
	}
}

func (s *Service) saveSnapshot(ctx context.Context, sess *booking.Session) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, sess.Snapshot()); err != nil {
		s.logger.Warn("assistant: failed to save session snapshot", "session_id", sess.SessionID(), "error", err)
	}
}

// answerQuestion handles non-booking messages with a catalog-grounded chat
// completion. Failures degrade to a polite fallback.
func (s *Service) answerQuestion(ctx context.Context, message string) string {
	ctx, span := tracer.Start(ctx, "assistant.answer_question")
	defer span.End()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: qaSystemPrompt},
	}
	if s.search != nil {
		docs, err := s.search.Query(ctx, message, 3)
		if err != nil {
			s.logger.Warn("assistant: catalog search failed", "error", err)
		} else if len(docs) > 0 {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Relevant catalog entries:\n" + strings.Join(docs, "\n"),
			})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil {
			span.RecordError(err)
			s.logger.Error("assistant: chat completion failed", "error", err)
		}
		return "I'm sorry, I'm having trouble answering right now. I can still help you book an appointment, just say 'book'."
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
