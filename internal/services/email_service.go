package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"

	"actionplan-tracker/internal/config"
	"actionplan-tracker/internal/report"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ReportMailer delivers a generated report by e-mail
type ReportMailer interface {
	SendReport(toEmail string, artifact *report.Artifact) error
}

// EmailService handles email sending via SendGrid
type EmailService struct {
	fromEmail string
	fromName  string
	formatter report.Formatter
	client    *sendgrid.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, formatter report.Formatter) *EmailService {
	fromName := cfg.FromName
	if fromName == "" {
		fromName = "Action Plan Tracker"
	}
	return &EmailService{
		fromEmail: cfg.FromEmail,
		fromName:  fromName,
		formatter: formatter,
		client:    sendgrid.NewSendClient(cfg.APIKey),
	}
}

// SendReport e-mails a report with the file attached
func (s *EmailService) SendReport(toEmail string, artifact *report.Artifact) error {
	message := s.buildReportMessage(toEmail, artifact)

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

func (s *EmailService) buildReportMessage(toEmail string, artifact *report.Artifact) *mail.SGMailV3 {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	subject := fmt.Sprintf("%s - %s", artifact.Period.Title(), s.formatter.FormatDate(artifact.GeneratedAt))

	message := mail.NewSingleEmail(from, subject, to, s.buildReportText(artifact), s.buildReportHTML(artifact))

	attachment := mail.NewAttachment()
	attachment.SetContent(base64.StdEncoding.EncodeToString(artifact.Data))
	attachment.SetType(artifact.ContentType)
	attachment.SetFilename(artifact.Filename)
	attachment.SetDisposition("attachment")
	message.AddAttachment(attachment)

	return message
}

func (s *EmailService) windowText(artifact *report.Artifact) string {
	start := s.formatter.FormatDate(artifact.WindowStart)
	end := s.formatter.FormatDate(artifact.WindowEnd)
	if start == end {
		return start
	}
	return start + " to " + end
}

func (s *EmailService) summaryText(artifact *report.Artifact) string {
	switch {
	case artifact.Empty:
		return "No tasks are planned to start in this period."
	case artifact.RowCount == 1:
		return "1 task is planned to start in this period."
	default:
		return fmt.Sprintf("%d tasks are planned to start in this period.", artifact.RowCount)
	}
}

// buildReportHTML builds the HTML content for the report email
func (s *EmailService) buildReportHTML(artifact *report.Artifact) string {
	var b bytes.Buffer

	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0066cc; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
        .content { background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="header">
        <h1 style="margin: 0;">` + html.EscapeString(artifact.Period.Title()) + `</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">` + html.EscapeString(s.windowText(artifact)) + `</p>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p>` + html.EscapeString(s.summaryText(artifact)) + `</p>
        <p>The report is attached as <strong>` + html.EscapeString(artifact.Filename) + `</strong>.</p>
    </div>
    <div class="footer">
        <p>This is an automated email. Please do not reply.</p>
        <p>` + html.EscapeString(s.formatter.GeneratedLine(artifact.GeneratedAt)) + `</p>
    </div>
</body>
</html>`)

	return b.String()
}

// buildReportText builds the plain text content for the report email
func (s *EmailService) buildReportText(artifact *report.Artifact) string {
	return fmt.Sprintf(`%s
%s

Hello,

%s
The report is attached as %s.

---
This is an automated email. Please do not reply.
%s`,
		artifact.Period.Title(),
		s.windowText(artifact),
		s.summaryText(artifact),
		artifact.Filename,
		s.formatter.GeneratedLine(artifact.GeneratedAt),
	)
}
