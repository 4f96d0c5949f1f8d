package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Service handles email sending with templates
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	Subject      string
	TemplateName string
	Data         interface{}
}

// ReceiptData fills the credit receipt template
type ReceiptData struct {
	PlanName  string
	Credits   int
	Amount    string
	Balance   int
	Reference string
}

// NewService creates email service and starts its worker
func NewService(sender Sender) *Service {
	s := &Service{
		sender:       sender,
		templates:    make(map[string]*template.Template),
		baseTemplate: template.Must(template.New("base").Parse(BaseTemplate)),
		queue:        make(chan *QueuedEmail, 100),
	}

	templates := map[string]string{
		TemplateSignupConfirmation: SignupConfirmationTemplate,
		TemplatePasswordReset:      PasswordResetTemplate,
		TemplateMagicLink:          MagicLinkTemplate,
		TemplateNotification:       NotificationTemplate,
		TemplateCreditReceipt:      CreditReceiptTemplate,
	}
	for name, content := range templates {
		s.templates[name] = template.Must(template.New(name).Parse(content))
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

// worker processes queued emails asynchronously
func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if _, err := s.send(ctx, email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("Failed to send email")
		}
		cancel()
	}
}

// Render executes a named template inside the base layout
func (s *Service) Render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("email template %q not found", templateName)
	}

	var content bytes.Buffer
	if err := tmpl.Execute(&content, data); err != nil {
		return "", err
	}

	var html bytes.Buffer
	if err := s.baseTemplate.Execute(&html, map[string]interface{}{
		"Content": template.HTML(content.String()),
		"Year":    time.Now().Year(),
	}); err != nil {
		return "", err
	}
	return html.String(), nil
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) (string, error) {
	html, err := s.Render(email.TemplateName, email.Data)
	if err != nil {
		return "", err
	}

	return s.sender.Send(ctx, &Message{
		To:      email.To,
		Subject: email.Subject,
		HTML:    html,
	})
}

// Queue adds an email to the async send queue
func (s *Service) Queue(to, templateName, subject string, data interface{}) {
	select {
	case s.queue <- &QueuedEmail{
		To:           to,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	}:
	default:
		log.Warn().Str("to", to).Str("template", templateName).Msg("Email queue full, dropping email")
	}
}

// SendSync sends an email synchronously (blocking)
func (s *Service) SendSync(ctx context.Context, to, templateName, subject string, data interface{}) (string, error) {
	return s.send(ctx, &QueuedEmail{
		To:           to,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	})
}

// Close drains the queue and stops the worker
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

// SendCreditReceipt queues the purchase receipt
func (s *Service) SendCreditReceipt(to string, data ReceiptData) {
	s.Queue(to, TemplateCreditReceipt, "Vos crédits AgroCi ont été ajoutés", data)
}
