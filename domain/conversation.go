package domain

// Conversation identifies the unordered pair of users a private
// exchange belongs to. Lo/Hi are normalized so both directions of the
// same exchange map to one key.
type Conversation struct {
	Lo UserID
	Hi UserID
}

// ConversationOf normalizes a pair of user ids.
func ConversationOf(a, b UserID) Conversation {
	if a > b {
		a, b = b, a
	}
	return Conversation{Lo: a, Hi: b}
}
