package authhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/agroci/agroci-api/internal/pkg/email"
	"github.com/agroci/agroci-api/internal/pkg/logger"
)

var ErrInvalidPayload = errors.New("invalid hook payload")

// Payload is the body Supabase Auth posts to the send-email hook.
type Payload struct {
	User      User      `json:"user"`
	EmailData EmailData `json:"email_data"`
}

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

type UserMetadata struct {
	Prenom string `json:"prenom"`
	Nom    string `json:"nom"`
}

type EmailData struct {
	Token           string `json:"token"`
	TokenHash       string `json:"token_hash"`
	RedirectTo      string `json:"redirect_to"`
	EmailActionType string `json:"email_action_type"`
	SiteURL         string `json:"site_url"`
	TokenNew        string `json:"token_new"`
	TokenHashNew    string `json:"token_hash_new"`
}

// TemplateData fills the auth email templates.
type TemplateData struct {
	ActionURL string
	UserName  string
}

// Mailer renders and sends one email synchronously.
type Mailer interface {
	SendSync(ctx context.Context, to, templateName, subject string, data interface{}) (string, error)
}

// Service sends the transactional auth emails Supabase delegates to us.
type Service struct {
	mailer      Mailer
	supabaseURL string
}

func NewService(mailer Mailer, supabaseURL string) *Service {
	return &Service{mailer: mailer, supabaseURL: strings.TrimRight(supabaseURL, "/")}
}

// ParsePayload decodes an already authenticated hook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(p.User.Email) == "" {
		return nil, fmt.Errorf("%w: missing user email", ErrInvalidPayload)
	}
	return &p, nil
}

// Send picks the template for the action and delivers it.
func (s *Service) Send(ctx context.Context, p *Payload) (string, error) {
	action := p.EmailData.EmailActionType
	tmpl, subject := templateFor(action)

	data := TemplateData{ActionURL: s.VerifyURL(p.EmailData)}
	if tmpl == email.TemplateSignupConfirmation {
		data.UserName = strings.TrimSpace(p.User.UserMetadata.Prenom)
	}

	logger.LogInfo(ctx, "Sending auth email", "action", action, "to", p.User.Email)

	id, err := s.mailer.SendSync(ctx, p.User.Email, tmpl, subject, data)
	if err != nil {
		return "", fmt.Errorf("send %s email: %w", action, err)
	}
	return id, nil
}

// VerifyURL builds the Supabase verification link the email points to.
func (s *Service) VerifyURL(d EmailData) string {
	return fmt.Sprintf("%s/auth/v1/verify?token=%s&type=%s&redirect_to=%s",
		s.supabaseURL,
		url.QueryEscape(d.TokenHash),
		url.QueryEscape(d.EmailActionType),
		url.QueryEscape(d.RedirectTo),
	)
}

func templateFor(action string) (string, string) {
	switch action {
	case "recovery", "reset_password":
		return email.TemplatePasswordReset, "Réinitialisation de votre mot de passe AgroCi"
	case "signup", "email_confirmation":
		return email.TemplateSignupConfirmation, "Confirmez votre inscription sur AgroCi"
	case "magiclink":
		return email.TemplateMagicLink, "Votre lien de connexion AgroCi"
	default:
		return email.TemplateNotification, "Notification AgroCi"
	}
}
