package assistant

import "strings"

var (
	greetingTokens = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "xin chao"}
	goodbyeTokens  = []string{"bye", "goodbye", "see you", "thanks, bye", "thank you, bye"}
)

const greetingReply = "Hello! Welcome to our salon. I can answer questions about our services or help you book an appointment. What can I do for you today?"

const goodbyeReply = "Thank you for visiting! Have a wonderful day, and see you at the salon."

// matchGreeting reports whether the message is a bare greeting. Only whole
// messages count so that "hi, I'd like to book tomorrow" flows through the
// normal pipeline.
func matchGreeting(text string) bool {
	return matchesToken(text, greetingTokens)
}

func matchGoodbye(text string) bool {
	return matchesToken(text, goodbyeTokens)
}

func matchesToken(text string, tokens []string) bool {
	msg := strings.ToLower(strings.TrimSpace(text))
	msg = strings.TrimRight(msg, "!. ")
	for _, token := range tokens {
		if msg == token {
			return true
		}
	}
	return false
}
