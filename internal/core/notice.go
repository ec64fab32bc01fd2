package core

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message surfaced to the user after an operation. Collaborator
// failures are reported as notices instead of aborting the request.
type Notice struct {
	Level   NoticeLevel
	Message string
}

func SuccessNotice(msg string) Notice { return Notice{Level: NoticeSuccess, Message: msg} }
func InfoNotice(msg string) Notice    { return Notice{Level: NoticeInfo, Message: msg} }
func WarningNotice(msg string) Notice { return Notice{Level: NoticeWarning, Message: msg} }
func ErrorNotice(msg string) Notice   { return Notice{Level: NoticeError, Message: msg} }
