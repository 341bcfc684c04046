package domain

// SessionMode identifies which carousel flow a session belongs to and
// how its key is scoped.
type SessionMode string

// Session modes.
const (
	ModeRecall SessionMode = "recall" // keyed per acting user
	ModeDelete SessionMode = "delete" // keyed per acting user
	ModeTop    SessionMode = "top"    // keyed per presenting message
)

// Valid reports whether m is a known session mode.
func (m SessionMode) Valid() bool {
	switch m {
	case ModeRecall, ModeDelete, ModeTop:
		return true
	}
	return false
}

// Action is one carousel interaction.
type Action string

// Carousel actions.
const (
	ActionPrev          Action = "prev"
	ActionNext          Action = "next"
	ActionSend          Action = "send"
	ActionConfirmDelete Action = "confirmDelete"
	ActionEdit          Action = "edit"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionPrev, ActionNext, ActionSend, ActionConfirmDelete, ActionEdit:
		return true
	}
	return false
}

// ActionToken is the triple carried by every carousel control. The
// presentation layer serializes it however it likes; the core only
// requires that it round-trips one interaction cycle unchanged. ItemID
// is the client-carried cursor: the current position is recomputed from
// it on every action, so no server-side index can desync from the list.
type ActionToken struct {
	Mode   SessionMode `json:"mode"`
	Action Action      `json:"action"`
	ItemID string      `json:"item_id"`
}

// Actor is the user performing an action, with its externally resolved
// privilege flag. Role resolution is the platform's concern.
type Actor struct {
	UserID     string
	Privileged bool
}

// UserSessionKey builds the session key for recall/delete flows. The key
// is global per user across channels: a new search replaces an older
// in-flight session for the same user ("last search wins").
func UserSessionKey(mode SessionMode, userID string) string {
	return string(mode) + ":user:" + userID
}

// MessageSessionKey builds the session key for top carousels, shared by
// every viewer of the presenting message.
func MessageSessionKey(messageID string) string {
	return string(ModeTop) + ":msg:" + messageID
}

// SessionKey resolves the key an action token operates on. Recall and
// delete sessions are scoped to the acting user; top sessions to the
// message presenting the carousel.
func (t ActionToken) SessionKey(actorUserID, messageID string) string {
	if t.Mode == ModeTop {
		return MessageSessionKey(messageID)
	}
	return UserSessionKey(t.Mode, actorUserID)
}
