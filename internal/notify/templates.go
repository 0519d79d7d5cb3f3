package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

type StatusData struct {
	RegisteredName string
	Status         models.ApprovalStatus
	Reason         string
	Handle         string
	LoginURL       string
}

const statusText = `Hello {{.RegisteredName}},

{{if eq .Status "APPROVED"}}Your registration has been approved. You can now sign in as {{.Handle}} at {{.LoginURL}}.{{else}}Your registration was not approved.

Reason: {{.Reason}}{{end}}

- PresentSir
`

const statusHTML = `<p>Hello {{.RegisteredName}},</p>
{{if eq .Status "APPROVED"}}<p>Your registration has been approved. You can now sign in as <b>{{.Handle}}</b> at <a href="{{.LoginURL}}">{{.LoginURL}}</a>.</p>
{{else}}<p>Your registration was not approved.</p>
<p>Reason: {{.Reason}}</p>
{{end}}<p>- PresentSir</p>
`

var (
	statusTextTpl = texttemplate.Must(texttemplate.New("status.txt").Parse(statusText))
	statusHTMLTpl = htmltemplate.Must(htmltemplate.New("status.html").Parse(statusHTML))
)

// StatusMessage builds the email sent when an institution is approved or
// rejected.
func StatusMessage(to string, data StatusData) (Message, error) {
	var text, html bytes.Buffer
	if err := statusTextTpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("notify: render text: %w", err)
	}
	if err := statusHTMLTpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("notify: render html: %w", err)
	}

	subject := "Your PresentSir registration was approved"
	if data.Status == models.StatusRejected {
		subject = "Your PresentSir registration was not approved"
	}
	return Message{
		To:       to,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
