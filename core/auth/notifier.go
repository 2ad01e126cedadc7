package auth

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

type codeMessage struct {
	template string
	subject  string
}

var (
	registrationMessages = map[account.Role]codeMessage{
		"":                  {template: "otp_registration", subject: "Registration OTP"},
		account.RoleStudent: {template: "otp_student", subject: "Student Registration OTP"},
		account.RoleTeacher: {template: "otp_teacher", subject: "Teacher Registration OTP"},
		account.RoleParent:  {template: "otp_parent", subject: "Parent Registration OTP"},
	}
	loginMessage = codeMessage{template: "otp_login", subject: "Login OTP"}
	childMessage = codeMessage{template: "otp_child", subject: "Child Verification OTP"}
)

type codeData struct {
	Code     string
	ValidFor string
}

// Notifier delivers codes by email.
type Notifier struct {
	mailSvc core.EmailService
}

func NewNotifier(mailSvc core.EmailService) *Notifier {
	return &Notifier{mailSvc: mailSvc}
}

// sendCode returns a *core.DeliveryError when the provider refuses or fails the message.
func (n *Notifier) sendCode(ctx context.Context, address string, msg codeMessage, code string, validFor time.Duration) error {
	m := &core.EmailMessage{
		To:           []mail.Address{{Address: address}},
		Subject:      msg.subject,
		TemplateName: msg.template,
		TemplateData: codeData{Code: code, ValidFor: humanizeDuration(validFor)},
	}
	if err := n.mailSvc.SendMessages(ctx, m); err != nil {
		return core.NewDeliveryError(address, err)
	}
	return nil
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if m := int(d.Minutes()); m != 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "1 minute"
}
