// Package notify provides best-effort email dispatch for booking
// confirmations.  Sends are never allowed to fail a booking: callers
// log and swallow any error.
package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer sends a plain-text message to a single recipient.  The
// interface keeps the transport swappable (SMTP in production, a log
// writer in development and tests).
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port of the relay
	From string // sender address
	Auth smtp.Auth
}

// NewSMTPMailer builds an SMTPMailer.  user may be empty for relays
// that accept unauthenticated submission.
func NewSMTPMailer(addr, from, user, pass string) *SMTPMailer {
	m := &SMTPMailer{Addr: addr, From: from}
	if user != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		m.Auth = smtp.PlainAuth("", user, pass, host)
	}
	return m
}

// Send composes a minimal RFC 5322 message and submits it.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.From, to, subject, body)
	return smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg))
}

// LogMailer writes mail to the process log instead of sending it.
// Used when no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("[mail] to=%s subject=%q :: %s", to, subject, body)
	return nil
}
