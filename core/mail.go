package core

import (
	"bytes"
	"net/mail"
	"sync"
	texttmpl "text/template"
)

var (
	templates   = make(map[string]*texttmpl.Template)
	templatesMu sync.RWMutex
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// RegisterEmailTemplate parses `text` and caches it under `name` for use as
// an EmailMessage.TemplateName. Panics on a malformed template.
func RegisterEmailTemplate(name, text string) {
	templatesMu.Lock()
	defer templatesMu.Unlock()
	templates[name] = texttmpl.Must(texttmpl.New(name).Parse(text))
}

// Render resolves the message's final text content.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}

	templatesMu.RLock()
	tmpl, ok := templates[m.TemplateName]
	templatesMu.RUnlock()
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != ""
}
