package booking

import "strings"

// Intent is the dialogue-control intent detected in a user message.
type Intent string

const (
	IntentEdit        Intent = "edit"
	IntentShowSummary Intent = "show_summary"
	IntentStartOver   Intent = "start_over"
	IntentConfirm     Intent = "confirm"
	IntentCancel      Intent = "cancel"
	IntentProvideInfo Intent = "provide_info"
)

var (
	editKeywords       = []string{"edit", "change", "modify", "update"}
	summaryKeywords    = []string{"summary", "status", "show", "review", "details"}
	startOverKeywords  = []string{"start over", "restart", "begin again", "reset"}
	confirmPhrases     = []string{"confirm booking", "confirm appointment", "yes confirm", "proceed with booking"}
	confirmExactTokens = []string{"confirm", "yes", "ok", "proceed", "go ahead"}
	cancelKeywords     = []string{"cancel", "stop", "quit", "exit"}
)

// ClassifyIntent maps a user message to a dialogue intent. Matching is
// case-insensitive substring matching with a fixed priority; the bare
// confirmation tokens are only matched against the entire trimmed message
// so that sentences that merely mention booking aren't taken as consent.
// Unrecognized messages classify as IntentProvideInfo.
func ClassifyIntent(text string) Intent {
	msg := strings.ToLower(strings.TrimSpace(text))

	if containsAny(msg, editKeywords) {
		return IntentEdit
	}
	if containsAny(msg, summaryKeywords) {
		return IntentShowSummary
	}
	if containsAny(msg, startOverKeywords) {
		return IntentStartOver
	}
	if containsAny(msg, confirmPhrases) {
		return IntentConfirm
	}
	for _, token := range confirmExactTokens {
		if msg == token {
			return IntentConfirm
		}
	}
	if containsAny(msg, cancelKeywords) {
		return IntentCancel
	}
	return IntentProvideInfo
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
