package constant

const (
	SessionModeLawsPublic   = "laws_public"
	SessionModeLawsInternal = "laws_internal"

	SessionStatusActive = "active"
	SessionStatusClosed = "closed"

	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"

	StreamEventToken    = "token"
	StreamEventComplete = "complete"
	StreamEventError    = "error"

	// Websocket frame types that are not part of a streaming turn.
	FrameTypeMessage      = "message"
	FrameTypeSessionEvent = "session_event"

	SessionTitleMaxLength   = 200
	DerivedTitleMaxRunes    = 60
	HistoryMaxLimit         = 200
	DefaultMessageMaxLength = 4000
)

func IsValidSessionMode(mode string) bool {
	return mode == SessionModeLawsPublic || mode == SessionModeLawsInternal
}

func IsValidSender(sender string) bool {
	switch sender {
	case SenderUser, SenderAssistant, SenderSystem:
		return true
	}
	return false
}
