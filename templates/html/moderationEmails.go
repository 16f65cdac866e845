package templates

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// renderEmail generates branded HTML shared by the moderation emails.
// The subject is displayed in the header banner, and bodyContent is plain
// text that gets HTML-escaped and has newlines converted to <br> tags.
func renderEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")

	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0b0e14; }
    .container { max-width: 600px; margin: 0 auto; background-color: #141a24; }
    .header { background: linear-gradient(135deg, #7c3aed 0%%, #2563eb 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
    .footer a { color: #7c3aed; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>&copy; PlayZone | <a href="https://www.playzone.gg">playzone.gg</a></p>
      <p><a href="https://www.playzone.gg/support">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// RenderBanNoticeEmail builds the plain and HTML bodies for a ban
// notification. A nil until means the ban is indefinite.
func RenderBanNoticeEmail(name, reason string, until *time.Time) (subject, plain, htmlBody string) {
	subject = "Your PlayZone account has been suspended"

	duration := "indefinitely"
	if until != nil {
		duration = "until " + until.Format("January 2, 2006")
	}

	plain = fmt.Sprintf(`Hi %s,

Your PlayZone account has been suspended %s.

Reason: %s

If you believe this was a mistake, you can appeal by replying to this
email or contacting our support team.

The PlayZone Moderation Team`, name, duration, reason)

	return subject, plain, renderEmail(subject, plain)
}

// RenderWarningEmail builds the plain and HTML bodies for a moderation
// warning that does not suspend the account.
func RenderWarningEmail(name, reason string) (subject, plain, htmlBody string) {
	subject = "A warning about your PlayZone account"

	plain = fmt.Sprintf(`Hi %s,

Your recent activity on PlayZone was flagged by our moderation team.

Reason: %s

This is a warning only and no restriction has been placed on your
account. Repeated violations may lead to a suspension.

The PlayZone Moderation Team`, name, reason)

	return subject, plain, renderEmail(subject, plain)
}
