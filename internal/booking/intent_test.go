package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"edit keyword", "I want to edit my phone", IntentEdit},
		{"change keyword", "can I change the branch?", IntentEdit},
		{"summary keyword", "show me a summary", IntentShowSummary},
		{"status keyword", "what's the status of my booking", IntentShowSummary},
		{"start over phrase", "let's start over", IntentStartOver},
		{"restart keyword", "restart please", IntentStartOver},
		{"confirm phrase", "please confirm booking now", IntentConfirm},
		{"bare confirm", "confirm", IntentConfirm},
		{"bare yes", "yes", IntentConfirm},
		{"bare yes padded", "  Yes  ", IntentConfirm},
		{"bare ok", "OK", IntentConfirm},
		{"cancel keyword", "cancel everything", IntentCancel},
		{"stop keyword", "stop", IntentCancel},
		{"plain info", "my name is Lan and my number is 0905123456", IntentProvideInfo},
		{"empty", "", IntentProvideInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestClassifyIntentPriority(t *testing.T) {
	// Edit wins even when the message also mentions cancelling.
	assert.Equal(t, IntentEdit, ClassifyIntent("edit or cancel, not sure"))
	// A sentence that merely contains "yes" is not consent.
	assert.Equal(t, IntentProvideInfo, ClassifyIntent("yes I was thinking about a haircut"))
	// "show" beats the bare-token confirm scan.
	assert.Equal(t, IntentShowSummary, ClassifyIntent("show it, ok"))
}
