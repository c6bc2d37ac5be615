package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
)

// VerificationEmail is the one message this service sends: the address
// verification link mailed right after account creation.
type VerificationEmail struct {
	To        string
	FullName  string
	Token     string
	VerifyURL string // base url; the token is appended as a query parameter
}

const verificationSubject = "Verify your email address"

var verificationTmpl = htmpl.Must(htmpl.New("verify_email").Parse(`
<p>Hi {{.FullName}},</p>
<p>Welcome! Please confirm your email address to activate your account:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
`))

// Render produces the subject, plain-text fallback, and HTML body.
func (v VerificationEmail) Render() (subject, text, html string, err error) {
	link := fmt.Sprintf("%s?token=%s", v.VerifyURL, v.Token)
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, map[string]string{
		"FullName": v.FullName,
		"Link":     link,
	}); err != nil {
		return "", "", "", err
	}
	text = fmt.Sprintf("Hi %s, verify your email address: %s", v.FullName, link)
	return verificationSubject, text, buf.String(), nil
}
