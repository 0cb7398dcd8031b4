package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// Envelope is one document addressed to one recipient.
type Envelope struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Message is an Envelope stamped with sender, id and date, ready to be encoded.
type Message struct {
	From      mail.Address
	To        string
	ReplyTo   string
	Subject   string
	HTML      string
	Text      string
	MessageID string
	Date      time.Time
}

// headerValue folds a value onto one line so user text cannot start new headers.
func headerValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// Bytes encodes the message as RFC 5322 with a multipart/alternative body.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	body := multipart.NewWriter(&buf)

	var head bytes.Buffer
	writeHeader := func(k, v string) {
		head.WriteString(k)
		head.WriteString(": ")
		head.WriteString(v)
		head.WriteString("\r\n")
	}

	from := m.From
	from.Name = headerValue(from.Name)
	writeHeader("From", from.String())
	writeHeader("To", (&mail.Address{Address: headerValue(m.To)}).String())
	if m.ReplyTo != "" {
		writeHeader("Reply-To", (&mail.Address{Address: headerValue(m.ReplyTo)}).String())
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", headerValue(m.Subject)))
	writeHeader("Date", m.Date.Format(time.RFC1123Z))
	writeHeader("Message-ID", m.MessageID)
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", body.Boundary()))
	head.WriteString("\r\n")

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", m.Text},
		{"text/html; charset=UTF-8", m.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", p.contentType)
		hdr.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := body.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("create part: %w", err)
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("write part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("close part: %w", err)
		}
	}
	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("close body: %w", err)
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}
