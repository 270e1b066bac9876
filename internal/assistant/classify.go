package assistant

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// bookingKeywords short-circuit the classifier for unambiguous requests.
var bookingKeywords = []string{"book", "appointment", "reserve", "schedule"}

const bookingClassifierPrompt = `You decide whether a customer message to a beauty salon is a request to book an appointment.

A booking request asks for a treatment, optionally with a date, time, or personal details ("I'd like a haircut tomorrow at 2pm, I'm Jane, 555-1234"). Questions about services, prices, opening hours, or general beauty advice are not booking requests.

Respond with JSON only, no other text:
{"is_booking_request": true or false}`

// wantsBooking reports whether a message asks to start a booking. Obvious
// keyword matches skip the model; everything else is classified with a
// chat completion, so a request phrased without a booking verb still
// opens a dialogue. Classifier failures fall through to Q&A.
func (s *Service) wantsBooking(ctx context.Context, message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	resp, err := s.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: bookingClassifierPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil {
			s.logger.Warn("assistant: booking classification failed", "error", err)
		}
		return false
	}

	var verdict struct {
		IsBookingRequest bool `json:"is_booking_request"`
	}
	if err := json.Unmarshal([]byte(sliceJSON(resp.Choices[0].Message.Content)), &verdict); err != nil {
		s.logger.Warn("assistant: unparseable booking classification", "content", resp.Choices[0].Message.Content)
		return false
	}
	return verdict.IsBookingRequest
}

// sliceJSON cuts the outermost JSON object out of a model reply that may
// be wrapped in code fences or prose.
func sliceJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}
