// Package extractor turns free-form chat messages into structured booking
// fields using an OpenAI chat model.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"

	"github.com/easysalon/salon-concierge/internal/booking"
	"github.com/easysalon/salon-concierge/pkg/logging"
)

var tracer = otel.Tracer("concierge.internal.extractor")

const systemPrompt = `You extract booking details from a customer message at a beauty salon.
Respond with ONLY a JSON object, no prose, with exactly these keys:
  "customer_name": the customer's name, or "Unknown" if not mentioned
  "customer_mobile": the customer's phone number, or "Unknown" if not mentioned
  "booking_date": the requested date as written by the customer, or "Unknown"
  "booking_time": the requested time as written by the customer, or "Unknown"
Never guess values the customer did not state.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor is an OpenAI-backed booking.FieldExtractor.
type Extractor struct {
	client chatClient
	model  string
	logger *logging.Logger
}

var _ booking.FieldExtractor = (*Extractor)(nil)

// New returns an OpenAI-backed field extractor.
func New(client chatClient, model string, logger *logging.Logger) *Extractor {
	if client == nil {
		panic("extractor: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{
		client: client,
		model:  model,
		logger: logger,
	}
}

// payload mirrors the JSON object the model is instructed to emit.
type payload struct {
	CustomerName   string `json:"customer_name"`
	CustomerMobile string `json:"customer_mobile"`
	BookingDate    string `json:"booking_date"`
	BookingTime    string `json:"booking_time"`
}

// Extract asks the model for booking fields found in the message. Known
// values are passed along so the model doesn't re-extract them; malformed
// model output degrades to an empty result.
func (e *Extractor) Extract(ctx context.Context, message string, known booking.ExtractedFields) (booking.ExtractedFields, error) {
	ctx, span := tracer.Start(ctx, "extractor.extract")
	defer span.End()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(message, known)},
		},
	})
	if err != nil {
		span.RecordError(err)
		return booking.ExtractedFields{}, fmt.Errorf("extractor: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return booking.ExtractedFields{}, nil
	}

	var p payload
	raw := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		e.logger.Warn("extractor: model returned malformed JSON", "error", err)
		return booking.ExtractedFields{}, nil
	}

	return booking.ExtractedFields{
		CustomerName:  clean(p.CustomerName),
		CustomerPhone: clean(p.CustomerMobile),
		Date:          clean(p.BookingDate),
		Time:          clean(p.BookingTime),
	}, nil
}

func buildUserPrompt(message string, known booking.ExtractedFields) string {
	var b strings.Builder
	b.WriteString("Customer message:\n")
	b.WriteString(message)
	b.WriteString("\n\nAlready known (do not re-extract, return \"Unknown\" for these):")
	writeKnown(&b, "customer_name", known.CustomerName)
	writeKnown(&b, "customer_mobile", known.CustomerPhone)
	writeKnown(&b, "booking_date", known.Date)
	writeKnown(&b, "booking_time", known.Time)
	return b.String()
}

func writeKnown(b *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(b, "\n- %s: %s", key, value)
	}
}

// stripFences removes a markdown code fence around the model output and
// slices down to the outermost JSON object.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// clean normalizes the model's "not mentioned" placeholders to empty.
func clean(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "unknown") || strings.EqualFold(v, "null") || strings.EqualFold(v, "n/a") {
		return ""
	}
	return v
}
