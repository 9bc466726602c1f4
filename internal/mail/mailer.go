package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the markdown is escaped (WithUnsafe is not set), so names typed
// by users cannot inject markup.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Invitation is the data of an invitation mail.
type Invitation struct {
	To          string
	ClientName  string
	TrainerName string
	Token       string
}

// Mailer composes the coaching mails and hands them to a Sender.
type Mailer struct {
	sender  Sender
	baseURL string
}

func NewMailer(sender Sender, appBaseURL string) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(appBaseURL, "/")}
}

// AcceptURL and RejectURL are the links embedded in the invitation.
func (m *Mailer) AcceptURL(token string) string {
	return fmt.Sprintf("%s/api/v1/invitations/%s/accept", m.baseURL, url.PathEscape(token))
}

func (m *Mailer) RejectURL(token string) string {
	return fmt.Sprintf("%s/api/v1/invitations/%s/reject", m.baseURL, url.PathEscape(token))
}

func (m *Mailer) PasswordSetupURL(token string) string {
	return fmt.Sprintf("%s/password/setup?token=%s", m.baseURL, url.QueryEscape(token))
}

// SendInvitation mails the accept and reject links of a pending invitation.
func (m *Mailer) SendInvitation(ctx context.Context, inv Invitation) error {
	body := fmt.Sprintf(`Hola %s,

**%s** te ha invitado a entrenar con su equipo.

[Aceptar invitación](%s)

[Rechazar invitación](%s)

Si no esperabas este correo puedes ignorarlo.`,
		escapeMarkdown(inv.ClientName), escapeMarkdown(inv.TrainerName),
		m.AcceptURL(inv.Token), m.RejectURL(inv.Token))

	return m.send(ctx, inv.To, fmt.Sprintf("%s te ha invitado como cliente", inv.TrainerName), body)
}

// SendPasswordSetup mails the link a provisioned client uses to choose a password.
func (m *Mailer) SendPasswordSetup(ctx context.Context, to, name, token string) error {
	body := fmt.Sprintf(`Hola %s,

Se ha creado una cuenta para ti. Elige tu contraseña aquí:

[Crear contraseña](%s)`, escapeMarkdown(name), m.PasswordSetupURL(token))

	return m.send(ctx, to, "Crea tu contraseña", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, markdown string) error {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &buf); err != nil {
		return fmt.Errorf("render mail: %w", err)
	}
	_, err := m.sender.Send(ctx, SendRequest{
		To:      []string{to},
		Subject: subject,
		HTML:    buf.String(),
	})
	return err
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`, "`", "\\`",
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }
