package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"

	"github.com/erp/reportdispatch/internal/domain/report"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const emailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<p>{{if .RecipientName}}Hello {{.RecipientName}},{{else}}Hello,{{end}}</p>
<p>Your {{.Frequency}} report <strong>{{.Name}}</strong> for {{.Date}} is attached ({{.Pages}} {{if eq .Pages 1}}page{{else}}pages{{end}}).</p>
<ul>
{{- range .Reports}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- if .Failed}}
<p style="color: #a33;">The following reports could not be generated and were left out:</p>
<ul>
{{- range .Failed}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
<p style="color: #777; font-size: 12px;">This email was sent automatically by the scheduled report service.</p>
</body>
</html>
`

type emailData struct {
	RecipientName string
	Name          string
	Frequency     report.Frequency
	Date          string
	Pages         int
	Reports       []string
	Failed        []string
}

// EmailComposer builds the outbound email for an assembled document
type EmailComposer struct {
	tmpl   *template.Template
	format *Formatter
}

// NewEmailComposer creates a new EmailComposer
func NewEmailComposer(format *Formatter) *EmailComposer {
	return &EmailComposer{
		tmpl:   template.Must(template.New("scheduled-report").Parse(emailTemplate)),
		format: format,
	}
}

// Compose addresses the email to the schedule's recipient with the PDF attached
func (c *EmailComposer) Compose(s *report.Schedule, doc *AssembledDocument, now time.Time) (*OutboundEmail, error) {
	local := now.In(s.Location)

	data := emailData{
		RecipientName: s.RecipientName,
		Name:          s.Name,
		Frequency:     s.Frequency,
		Date:          c.format.Date(local),
		Pages:         doc.PageCount,
		Reports:       doc.Reports,
	}
	for _, f := range doc.Failures {
		data.Failed = append(data.Failed, f.ReportType.Title())
	}

	var body bytes.Buffer
	if err := c.tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}

	return &OutboundEmail{
		To:      s.EmailAddress,
		ToName:  s.RecipientName,
		Subject: fmt.Sprintf("%s - %s", s.Name, data.Date),
		HTML:    body.String(),
		Attachments: []Attachment{{
			Filename:    AttachmentFilename(s.Name, local),
			ContentType: "application/pdf",
			Content:     doc.PDF,
		}},
	}, nil
}

// AttachmentFilename returns "<slug>-<YYYY-MM-DD>.pdf" for the local send date
func AttachmentFilename(name string, local time.Time) string {
	return Slugify(name) + "-" + local.Format(time.DateOnly) + ".pdf"
}

// Slugify lowercases name, strips accents and joins alphanumeric runs with hyphens
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "report"
	}
	return b.String()
}

// ArchiveKey places a delivered PDF under <schedule-id>/<YYYY>/<MM>/<DD>/<filename>
func ArchiveKey(s *report.Schedule, local time.Time, filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.ID, local.Format("2006/01/02"), filename)
}
