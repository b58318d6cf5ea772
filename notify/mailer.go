// Package notify emails complainants about their cases through SendGrid.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/models"
	templates "github.com/cybercell/complaint-portal-api/templates/html"
)

const senderName = "Cyber Crime Complaint Portal"

// Sender delivers a prepared message. *sendgrid.Client satisfies it.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer implements services.Notifier with SendGrid emails
type Mailer struct {
	sender  Sender
	from    *mail.Email
	baseURL string
}

// NewMailer returns a Mailer sending with apiKey from the from address. Links in
// the emails point at baseURL.
func NewMailer(apiKey, from, baseURL string) *Mailer {
	return NewMailerWithSender(sendgrid.NewSendClient(apiKey), from, baseURL)
}

// NewMailerWithSender is NewMailer with an explicit transport
func NewMailerWithSender(sender Sender, from, baseURL string) *Mailer {
	return &Mailer{
		sender:  sender,
		from:    mail.NewEmail(senderName, from),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CaseRegistered acknowledges a new case to its complainant
func (m *Mailer) CaseRegistered(ctx context.Context, c models.Case) error {
	subject, body := templates.CaseRegistered(m.caseEmail(c))
	return m.send(ctx, c, subject, body)
}

// CaseStatusChanged tells the complainant their case moved to a new status
func (m *Mailer) CaseStatusChanged(ctx context.Context, c models.Case) error {
	subject, body := templates.CaseStatusChanged(m.caseEmail(c))
	return m.send(ctx, c, subject, body)
}

func (m *Mailer) caseEmail(c models.Case) templates.CaseEmail {
	d := templates.CaseEmail{
		Name:            c.Name,
		CaseID:          c.CaseID,
		CrimeType:       c.CrimeType,
		Status:          string(c.Status),
		AssignedOfficer: c.AssignedOfficer,
	}
	if m.baseURL != "" {
		d.TrackURL = m.baseURL + "/track?caseId=" + c.CaseID
	}
	return d
}

func (m *Mailer) send(ctx context.Context, c models.Case, subject, body string) error {
	if c.Email == "" {
		zap.S().Debugw("no complainant email, skipping notice", "caseId", c.CaseID)
		return nil
	}

	to := mail.NewEmail(c.Name, c.Email)
	message := mail.NewSingleEmail(m.from, subject, to, body, templates.RenderGenericEmail(subject, body))
	response, err := m.sender.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "caseId", c.CaseID)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "caseId", c.CaseID, "subject", subject)
	return nil
}
