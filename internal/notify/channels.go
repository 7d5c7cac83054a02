package notify

import (
	"context"
	"fmt"
	"strings"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/credit/format"
	"credit-workflow/internal/models"
)

// Mailer sends plain-text email. *aws.SESClient satisfies it.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// Texter sends SMS. *aws.SNSClient satisfies it.
type Texter interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ChannelsConfig struct {
	EmailEnabled  bool
	SMSEnabled    bool
	DirectorPhone string
}

// Channels delivers the decision email and the analysis SMS. A disabled
// or unset channel is a silent no-op.
type Channels struct {
	config ChannelsConfig
	mailer Mailer
	texter Texter
	logger logger.Logger
}

func NewChannels(cfg ChannelsConfig, mailer Mailer, texter Texter, log logger.Logger) *Channels {
	return &Channels{config: cfg, mailer: mailer, texter: texter, logger: log}
}

// EmailDecision tells the submitter how their application was decided.
func (c *Channels) EmailDecision(ctx context.Context, app *models.CreditApplication) error {
	if c == nil || !c.config.EmailEnabled || c.mailer == nil {
		return nil
	}
	to := strings.TrimSpace(app.SubmittedBy.Email)
	if to == "" {
		c.logger.Warn("Decision email skipped, submitter has no email", map[string]interface{}{"applicationId": app.ID})
		return nil
	}

	subject, body := DecisionEmail(app)
	msgID, err := c.mailer.SendText(ctx, to, subject, body)
	if err != nil {
		return errors.NewNotificationSendFailedError("email", err)
	}
	c.logger.Info("Decision email sent", map[string]interface{}{
		"applicationId": app.ID,
		"messageId":     msgID,
	})
	return nil
}

// TextAnalysis alerts the director that an analysis awaits a decision.
func (c *Channels) TextAnalysis(ctx context.Context, app *models.CreditApplication) error {
	if c == nil || !c.config.SMSEnabled || c.texter == nil || c.config.DirectorPhone == "" {
		return nil
	}
	msgID, err := c.texter.SendSMS(ctx, c.config.DirectorPhone, AnalysisSMS(app))
	if err != nil {
		return errors.NewNotificationSendFailedError("sms", err)
	}
	c.logger.Info("Analysis SMS sent", map[string]interface{}{
		"applicationId": app.ID,
		"messageId":     msgID,
	})
	return nil
}

// DecisionEmail renders the subject and body of the decision email.
func DecisionEmail(app *models.CreditApplication) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\n", app.SubmittedBy.Name)

	if app.Status == models.StatusApproved && app.ApprovedLimit != nil {
		term := 0
		if app.ApprovedTerm != nil {
			term = *app.ApprovedTerm
		}
		fmt.Fprintf(&b, "La solicitud de crédito de %s (NIT %s) fue aprobada.\n\n", app.ClientName, app.TaxID)
		fmt.Fprintf(&b, "Cupo: %s (%s)\n", format.Currency(*app.ApprovedLimit), format.AmountInWords(*app.ApprovedLimit))
		fmt.Fprintf(&b, "Plazo: %d días\n", term)
		return fmt.Sprintf("Crédito aprobado: %s", app.ClientName), b.String()
	}

	fmt.Fprintf(&b, "La solicitud de crédito de %s (NIT %s) fue negada.\n\n", app.ClientName, app.TaxID)
	if app.RejectionReason != "" {
		fmt.Fprintf(&b, "Motivo: %s\n", app.RejectionReason)
	}
	return fmt.Sprintf("Crédito negado: %s", app.ClientName), b.String()
}

// AnalysisSMS renders the director alert.
func AnalysisSMS(app *models.CreditApplication) string {
	msg := fmt.Sprintf("Credito %s listo para decision.", app.ClientName)
	if app.Limit != nil {
		msg += fmt.Sprintf(" Rango %s - %s, riesgo %s.",
			format.Currency(app.Limit.Conservative), format.Currency(app.Limit.Liberal), app.RiskLevel)
	}
	return msg
}
