package constant

const (
	EventSessionCreated  = "chat.session_created"
	EventSessionClosed   = "chat.session_closed"
	EventMessageAppended = "chat.message_appended"
	EventTurnFailed      = "chat.turn_failed"

	EventSubjectPrefix = "events."
	ChatEventSubjects  = "events.chat.>"
)
