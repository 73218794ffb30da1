// Package email delivers transactional mail. The service only ever needs one
// narrow contract: recipient and code in, delivery success or failure out.
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Sender delivers a one-time verification code to a recipient.
type Sender interface {
	SendOTP(ctx context.Context, recipient, code string) error
}

// SMTPSender sends OTP mails through an SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender creates a Sender for the given relay. addr is host:port.
func NewSMTPSender(addr, username, password, from string) *SMTPSender {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	return &SMTPSender{
		addr: addr,
		from: from,
		auth: smtp.PlainAuth("", username, password, host),
	}
}

// SendOTP delivers the verification code. The context deadline is not honored
// by net/smtp; callers should keep OTP delivery on the request path only.
func (s *SMTPSender) SendOTP(_ context.Context, recipient, code string) error {
	msg := fmt.Sprintf(
		"From: Pawsome <%s>\r\nTo: %s\r\nSubject: Your verification code\r\n"+
			"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n"+
			"Your verification code is %s. It expires in 5 minutes.\r\n",
		s.from, recipient, code)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{recipient}, []byte(msg)); err != nil {
		return errors.Wrap(err, "send otp mail")
	}
	return nil
}

// LogSender logs codes instead of sending them. Used in development and tests.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// SendOTP logs the code at info level.
func (s *LogSender) SendOTP(_ context.Context, recipient, code string) error {
	s.lg.Info("OTP issued",
		zap.String("recipient", recipient),
		zap.String("code", code),
	)
	return nil
}
