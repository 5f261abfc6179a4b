// Package mailer sends transactional notification emails. Every send is
// best effort: failures are logged and never block or fail the operation
// that triggered them.
package mailer

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"octa-backend/pkg/config"
)

// Mailer sends notification emails over SMTP
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

// New creates a mailer from configuration. A mailer with no SMTP username
// is a no-op that only logs.
func New(cfg *config.Config) *Mailer {
	if cfg.SMTP.Username == "" {
		logrus.Info("SMTP not configured, email notifications disabled")
		return &Mailer{}
	}
	timeout := cfg.SMTP.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		from:    cfg.SMTP.From,
		timeout: timeout,
	}
}

// send dispatches asynchronously and logs failures. gomail has no timeout
// of its own, so a delivery still in flight after the configured SMTP
// timeout is abandoned and logged.
func (m *Mailer) send(to, subject, htmlBody string) {
	if m.dialer == nil {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	go func() {
		done := make(chan error, 1)
		go func() {
			done <- m.dialer.DialAndSend(msg)
		}()

		select {
		case err := <-done:
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"to":      to,
					"subject": subject,
				}).Warn("Failed to send email")
			}
		case <-time.After(m.timeout):
			logrus.WithFields(logrus.Fields{
				"to":      to,
				"subject": subject,
				"timeout": m.timeout,
			}).Warn("Email delivery timed out")
		}
	}()
}

// SendAccountApproved notifies a user their account was approved
func (m *Mailer) SendAccountApproved(to, name, uniqueID string) {
	body := fmt.Sprintf(`
		<h2>Welcome aboard, %s!</h2>
		<p>Your account has been approved.</p>
		<p>Your unique ID is <strong>%s</strong>. You can log in with it or with your email address.</p>`,
		name, uniqueID)
	m.send(to, "Your account has been approved", body)
}

// SendAccountRejected notifies a user their registration was rejected
func (m *Mailer) SendAccountRejected(to, name, reason string) {
	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Unfortunately your registration could not be approved.</p>
		<p>Reason: %s</p>`,
		name, reason)
	m.send(to, "Your registration was not approved", body)
}

// SendPaymentVerified notifies a user their deposit was credited
func (m *Mailer) SendPaymentVerified(to, name, amount string) {
	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your payment of <strong>%s</strong> has been verified and credited to your balance.</p>`,
		name, amount)
	m.send(to, "Payment verified", body)
}

// SendPaymentRejected notifies a user their deposit claim was rejected
func (m *Mailer) SendPaymentRejected(to, name, amount, remarks string) {
	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your payment claim of <strong>%s</strong> was rejected.</p>
		<p>Remarks: %s</p>`,
		name, amount, remarks)
	m.send(to, "Payment rejected", body)
}

// SendWithdrawalProcessed notifies a user their withdrawal was paid out
func (m *Mailer) SendWithdrawalProcessed(to, name, amount string) {
	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your withdrawal of <strong>%s</strong> has been processed and debited from your balance.</p>`,
		name, amount)
	m.send(to, "Withdrawal processed", body)
}

// SendWithdrawalRejected notifies a user their withdrawal was declined
func (m *Mailer) SendWithdrawalRejected(to, name, amount, remarks string) {
	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your withdrawal request of <strong>%s</strong> was rejected. Your balance is unchanged.</p>
		<p>Remarks: %s</p>`,
		name, amount, remarks)
	m.send(to, "Withdrawal rejected", body)
}
