// Package notification provides a unified interface for sending account
// notices via pluggable channels.
//
// The NotificationManager maps a NoticeType to a template per
// NotificationSystem and dispatches through registered Notifier
// implementations. Email delivery is provided via SMTP (go-mail); a
// MockNotifier records dispatches for tests.
//
// # Core Interface
//
//	type Notifier interface {
//	    Send(noticeType NoticeType, data NotificationData, template NoticeTemplate) error
//	}
//
// # Setup
//
//	nm, err := notification.NewNotificationManagerWithOptions(
//	    "https://gallery.example.com",
//	    notification.WithSMTP(smtpConfig),
//	    notification.WithDefaultTemplates(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	nm.Send(notification.PasswordResetNotice, notification.NotificationData{
//	    To: "user@example.com",
//	    Data: map[string]string{
//	        "Username": "john_doe",
//	        "ResetUrl": "https://gallery.example.com/account/reset?token=abc",
//	    },
//	})
//
// Templates use Go's html/template syntax and are executed against
// NotificationData.Data. The default templates are embedded from
// templates/email.
package notification
