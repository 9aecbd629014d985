package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"inss_crm_go/config"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailService sends transactional email through Resend. With TestMode on,
// messages are logged instead of sent.
type EmailService struct {
	client   *resend.Client
	from     string
	testMode bool
	log      *zap.Logger
}

// NewEmailService creates an email service from configuration.
func NewEmailService(cfg *config.Config, log *zap.Logger) *EmailService {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &EmailService{
		client:   client,
		from:     fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		testMode: cfg.EmailTestMode,
		log:      log,
	}
}

// Send delivers one email. In test mode the message is logged and reported
// as sent.
func (s *EmailService) Send(email *Email) error {
	if s.testMode {
		s.log.Info("email em modo de teste, não enviado",
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject),
			zap.String("body", truncate(email.TextBody, 500)))
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	s.log.Info("email enviado",
		zap.String("resend_id", sent.Id),
		zap.Strings("to", email.To))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// BuildPrazoProximoEmail alerts the responsible user about an approaching
// deadline.
func BuildPrazoProximoEmail(userEmail, userName, processoNumero, descricao string, dataFatal time.Time, diasRestantes int) *Email {
	subject := fmt.Sprintf("Prazo em %d dia(s): %s", diasRestantes, processoNumero)
	text := fmt.Sprintf(
		"Olá %s,\n\nO prazo \"%s\" do processo %s vence em %s (%d dia(s) restante(s)).\n\nNão deixe para a última hora.",
		userName, descricao, processoNumero, dataFatal.Format("02/01/2006"), diasRestantes)
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>O prazo <strong>%s</strong> do processo <strong>%s</strong> vence em <strong>%s</strong> (%d dia(s) restante(s)).</p><p>Não deixe para a última hora.</p>",
		userName, descricao, processoNumero, dataFatal.Format("02/01/2006"), diasRestantes)
	return &Email{To: []string{userEmail}, Subject: subject, TextBody: text, HTMLBody: html}
}

// BuildPrazoPerdidoEmail notifies that a deadline expired without being met.
func BuildPrazoPerdidoEmail(userEmail, userName, processoNumero, descricao string, dataFatal time.Time) *Email {
	subject := fmt.Sprintf("PRAZO PERDIDO: %s", processoNumero)
	text := fmt.Sprintf(
		"Olá %s,\n\nO prazo \"%s\" do processo %s venceu em %s sem registro de cumprimento e foi marcado como perdido.\n\nVerifique imediatamente se alguma providência ainda é possível.",
		userName, descricao, processoNumero, dataFatal.Format("02/01/2006"))
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>O prazo <strong>%s</strong> do processo <strong>%s</strong> venceu em <strong>%s</strong> sem registro de cumprimento e foi marcado como <strong>perdido</strong>.</p><p>Verifique imediatamente se alguma providência ainda é possível.</p>",
		userName, descricao, processoNumero, dataFatal.Format("02/01/2006"))
	return &Email{To: []string{userEmail}, Subject: subject, TextBody: text, HTMLBody: html}
}

// BuildParcelaVencidaEmail notifies about an overdue fee installment.
func BuildParcelaVencidaEmail(userEmail, userName, clienteNome string, numero int, valorCentavos int64, dataVencimento time.Time) *Email {
	subject := fmt.Sprintf("Parcela vencida: %s", clienteNome)
	valor := FormatarCentavos(valorCentavos)
	text := fmt.Sprintf(
		"Olá %s,\n\nA parcela %d do contrato de %s, no valor de %s, venceu em %s e segue em aberto.",
		userName, numero, clienteNome, valor, dataVencimento.Format("02/01/2006"))
	return &Email{To: []string{userEmail}, Subject: subject, TextBody: text}
}

// BuildDocumentoProcessadoEmail notifies that AI extraction finished for a
// document.
func BuildDocumentoProcessadoEmail(userEmail, userName, documentoNome string, sucesso bool) *Email {
	var subject, text string
	if sucesso {
		subject = fmt.Sprintf("Documento processado: %s", documentoNome)
		text = fmt.Sprintf("Olá %s,\n\nA análise do documento \"%s\" foi concluída e os dados extraídos já estão disponíveis no sistema.", userName, documentoNome)
	} else {
		subject = fmt.Sprintf("Falha no processamento: %s", documentoNome)
		text = fmt.Sprintf("Olá %s,\n\nA análise automática do documento \"%s\" falhou. O arquivo continua disponível, mas a extração de dados precisa ser feita manualmente.", userName, documentoNome)
	}
	return &Email{To: []string{userEmail}, Subject: subject, TextBody: text}
}

// BuildBoasVindasEmail welcomes a newly registered user.
func BuildBoasVindasEmail(userEmail, userName, escritorioNome string) *Email {
	subject := fmt.Sprintf("Bem-vindo(a) ao %s", escritorioNome)
	text := fmt.Sprintf(
		"Olá %s,\n\nSua conta no escritório %s foi criada. Acesse o sistema com seu email e a senha cadastrada.",
		userName, escritorioNome)
	return &Email{To: []string{userEmail}, Subject: subject, TextBody: text}
}

// FormatarCentavos renders an amount in centavos as R$ 1.234,56.
func FormatarCentavos(centavos int64) string {
	negativo := centavos < 0
	if negativo {
		centavos = -centavos
	}
	reais := centavos / 100
	resto := centavos % 100

	digits := fmt.Sprintf("%d", reais)
	var partes []string
	for len(digits) > 3 {
		partes = append([]string{digits[len(digits)-3:]}, partes...)
		digits = digits[:len(digits)-3]
	}
	partes = append([]string{digits}, partes...)

	valor := fmt.Sprintf("R$ %s,%02d", strings.Join(partes, "."), resto)
	if negativo {
		return "-" + valor
	}
	return valor
}
