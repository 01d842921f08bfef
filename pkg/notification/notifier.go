package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NoticeType identifies what is being communicated; each type maps to a
// template per system.
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// Notices dispatched by the account services
	PasswordResetNotice       NoticeType = "password_reset"
	NewAccountNotice          NoticeType = "new_account_confirm"
	EmailChangeConfirmNotice  NoticeType = "email_change_confirm"
	EmailChangePreviousNotice NoticeType = "email_change_previous"
	CredentialAddedNotice     NoticeType = "credential_added"
	CredentialRemovedNotice   NoticeType = "credential_removed"

	ExampleNotice NoticeType = "example"
)

// NoticeTemplate holds the subject and bodies for one notice on one system.
// Text and Html are Go text/html templates executed against
// NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// NotificationData carries the recipient and template data for one dispatch.
type NotificationData struct {
	To      string
	Subject string
	Body    string
	Data    map[string]string
}

// Notifier delivers a rendered notice over one system.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
