package notify

import (
	"context"
	"fmt"
	"ihidro-assist/internal/components/assert"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/scrapers/ihidro"
	"net"
	"net/smtp"
	"strconv"
	"sync"

	"github.com/jordan-wright/email"
)

const report_notify_window_open = "notify.window-open"

// Sender delivers a single e-mail.
//
// note: fault injection point
type Sender interface {
	Send(e *email.Email) error
}

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// SMTPSender sends e-mail through an smtp relay with PLAIN auth.
type SMTPSender struct {
	addr string
	auth smtp.Auth
}

func NewSMTPSender(config SMTPConfig) SMTPSender {
	assert.NotEmptyStr(config.Host)

	port := config.Port
	if port == 0 {
		port = 587
	}
	sender := SMTPSender{addr: net.JoinHostPort(config.Host, strconv.Itoa(port))}
	if config.Username != "" {
		sender.auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return sender
}

func (s SMTPSender) Send(e *email.Email) error {
	return e.Send(s.addr, s.auth)
}

// WindowNotifier sends an e-mail whenever an account's transmission window opens.
// It implements service.Reporter.
type WindowNotifier struct {
	from   string
	to     []string
	sender Sender
	tel    telemetry.API

	mu sync.Mutex
	// accounts not in here count as closed, so the first open status after a
	// restart is notified
	open map[string]bool
}

func NewWindowNotifier(from string, to []string, sender Sender, tel telemetry.API) *WindowNotifier {
	assert.NotEmptyStr(from)
	assert.NotNil(sender)
	assert.NotNil(tel)

	return &WindowNotifier{
		from:   from,
		to:     to,
		sender: sender,
		tel:    telemetry.NewScopedAPI("notify", tel),
		open:   make(map[string]bool),
	}
}

func (n *WindowNotifier) ReportStatus(_ context.Context, account string, status ihidro.StatusRecord) error {
	n.mu.Lock()
	wasOpen := n.open[account]
	n.open[account] = status.IsWindowOpen
	n.mu.Unlock()

	if wasOpen || !status.IsWindowOpen || len(n.to) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = n.from
	e.To = n.to
	e.Subject = fmt.Sprintf("iHidro: poti transmite indexul pentru %s", account)
	e.Text = []byte(fmt.Sprintf(
		"Perioada de transmitere a indexului pentru %s: %s\n\n%s\n",
		account,
		status.TransmissionWindow,
		status.InvoiceText,
	))

	err := n.sender.Send(e)
	if err != nil {
		// let the next refresh try again
		n.mu.Lock()
		n.open[account] = false
		n.mu.Unlock()

		n.tel.ReportBroken(report_notify_window_open, err, account)
		return fmt.Errorf("send window notification: %w", err)
	}
	n.tel.ReportDebug(report_notify_window_open, account, status.TransmissionWindow)
	return nil
}

func (n *WindowNotifier) ReportSubmissionResult(context.Context, string, string, bool) error {
	return nil
}
