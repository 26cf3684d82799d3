package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
)

// Message is a single outbound email with plain-text and HTML alternatives.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer is any transport able to deliver messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// mimeBody renders the multipart/alternative payload for msg, headers
// included. The boundary is fixed per message build, not cryptographic.
func mimeBody(from string, msg Message) []byte {
	const boundary = "=_attendance_alt"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	if msg.ToName != "" {
		fmt.Fprintf(&buf, "To: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	} else {
		fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Text)
	buf.WriteString("\r\n")

	if msg.HTML != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.HTML)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
