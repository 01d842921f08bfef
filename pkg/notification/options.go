package notification

import (
	"embed"
	"log/slog"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithSMTP adds an email notifier with the provided SMTP configuration
func WithSMTP(config SMTPConfig) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		nm.RegisterNotifier(EmailSystem, emailNotifier)
		return nil
	}
}

// WithPasswordResetTemplate registers the password reset template
func WithPasswordResetTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{
			Subject: "Password Reset Request",
			Html:    loadTemplate("templates/email/password_reset.html"),
		})
	}
}

// WithNewAccountTemplate registers the account confirmation template
func WithNewAccountTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(NewAccountNotice, EmailSystem, NoticeTemplate{
			Subject: "Please verify your account",
			Html:    loadTemplate("templates/email/new_account_confirm.html"),
		})
	}
}

// WithEmailChangeConfirmTemplate registers the new-address confirmation template
func WithEmailChangeConfirmTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailChangeConfirmNotice, EmailSystem, NoticeTemplate{
			Subject: "Verify your new email address",
			Html:    loadTemplate("templates/email/email_change_confirm.html"),
		})
	}
}

// WithEmailChangePreviousTemplate registers the notice sent to the old address
func WithEmailChangePreviousTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailChangePreviousNotice, EmailSystem, NoticeTemplate{
			Subject: "Recent changes to your account's email",
			Html:    loadTemplate("templates/email/email_change_previous.html"),
		})
	}
}

// WithCredentialAddedTemplate registers the credential added template
func WithCredentialAddedTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(CredentialAddedNotice, EmailSystem, NoticeTemplate{
			Subject: "Credential added to your account",
			Html:    loadTemplate("templates/email/credential_added.html"),
		})
	}
}

// WithCredentialRemovedTemplate registers the credential removed template
func WithCredentialRemovedTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(CredentialRemovedNotice, EmailSystem, NoticeTemplate{
			Subject: "Credential removed from your account",
			Html:    loadTemplate("templates/email/credential_removed.html"),
		})
	}
}

// WithDefaultTemplates registers all default notification templates
func WithDefaultTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithPasswordResetTemplate(),
			WithNewAccountTemplate(),
			WithEmailChangeConfirmTemplate(),
			WithEmailChangePreviousTemplate(),
			WithCredentialAddedTemplate(),
			WithCredentialRemovedTemplate(),
		}

		for _, opt := range options {
			if err := opt(nm); err != nil {
				return err
			}
		}

		return nil
	}
}

// NewNotificationManagerWithOptions creates a new notification manager with the provided options
func NewNotificationManagerWithOptions(baseUrl string, opts ...NotificationManagerOption) (*NotificationManager, error) {
	notificationManager := NewNotificationManager(baseUrl)

	for _, opt := range opts {
		if err := opt(notificationManager); err != nil {
			return nil, err
		}
	}

	return notificationManager, nil
}
