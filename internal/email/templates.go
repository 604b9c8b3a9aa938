package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("email").Parse(`
{{define "verify"}}<p>Hi {{.Name}},</p>
<p>Welcome to {{.Clinic}}. Please confirm your email address within 24 hours:</p>
<p><a href="{{.Link}}">Verify my account</a></p>{{end}}

{{define "unlock"}}<p>Hi {{.Name}},</p>
<p>Your {{.Clinic}} account was locked after several failed sign-in attempts. It unlocks automatically in 10 minutes, or you can unlock it now:</p>
<p><a href="{{.Link}}">Unlock my account</a></p>{{end}}

{{define "reset"}}<p>Hi {{.Name}},</p>
<p>We received a request to reset your {{.Clinic}} password. The link below is valid for one hour:</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>{{end}}

{{define "unavailability"}}<p>Hi {{.Name}},</p>
<p>Please be advised that {{.Clinic}} is unavailable on <strong>{{.Date}}</strong>{{if .Window}} from {{.Window}}{{end}}.</p>
<p>Reason: {{.Reason}}</p>
<p>We apologize for the inconvenience. {{.Actor}}</p>{{end}}
`))

// Content is the data available to every template.
type Content struct {
	Name   string
	Clinic string
	Link   string
	Date   string
	Window string
	Reason string
	Actor  string
}

// Render executes the named template.
func Render(name string, c Content) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, c); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}
