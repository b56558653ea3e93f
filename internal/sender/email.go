package sender

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"memorial-service/config"

	gopkgmail "gopkg.in/gomail.v2"
)

type Email struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type dialer interface {
	DialAndSend(m ...*gopkgmail.Message) error
}

type EmailSender struct {
	from    string
	tmplDir string
	dialer  dialer
}

func NewEmailSender(cfg *config.Notifier) *EmailSender {
	d := gopkgmail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	d.SSL = cfg.SMTPPort == 465
	return &EmailSender{from: cfg.SMTPFrom, tmplDir: cfg.TMPLDir, dialer: d}
}

func (s *EmailSender) SendEmail(n Email) error {
	htmlBody, plainBody, err := s.Render(n.Template, n.Data)
	if err != nil {
		return err
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if strings.Contains(htmlBody, "cid:logo") {
		iconPath := filepath.Join(s.tmplDir, "icon.png")
		if _, errStat := os.Stat(iconPath); errStat == nil {
			m.Embed(iconPath, gopkgmail.SetHeader(map[string][]string{"Content-ID": {"<logo>"}}))
		}
	}

	return s.dialer.DialAndSend(m)
}

// Render собирает html- и текстовую версии письма из <tmpl>.html и <tmpl>.txt.
func (s *EmailSender) Render(tmplName string, data map[string]any) (string, string, error) {
	htmlBody, err := s.renderHTML(tmplName, data)
	if err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	plainBody, err := s.renderPlain(tmplName, data)
	if err != nil {
		return "", "", fmt.Errorf("render plain: %w", err)
	}
	return htmlBody, plainBody, nil
}

func (s *EmailSender) renderHTML(tmplName string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.tmplDir, tmplName+".html"))
	if err != nil {
		return "", err
	}
	tmpl, err := htmltemplate.New(tmplName).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Текстовая версия не экранируется как html.
func (s *EmailSender) renderPlain(tmplName string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.tmplDir, tmplName+".txt"))
	if err != nil {
		return "", err
	}
	tmpl, err := texttemplate.New(tmplName).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
