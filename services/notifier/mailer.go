package notifier

import (
	"bytes"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"

	"pricedrop/priceworker/internal/model"
)

// Mailer implements Notifier over SMTP (AWS SES in production)
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

// MailerConfig holds the SMTP settings for the Mailer
type MailerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// NewMailer creates a new SMTP mailer
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
	}
}

type dropMailData struct {
	Title       string
	URL         string
	Image       string
	OldPrice    string
	NewPrice    string
	DropPercent string
	SettingsURL string
}

var dropHTML = template.Must(template.New("priceDrop").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: #667eea; color: white; padding: 30px; text-align: center;">
    <h1>Price Drop Alert!</h1>
    <p>A product you're tracking just dropped in price</p>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <div style="background: white; border-radius: 8px; padding: 20px;">
      {{if .Image}}<img src="{{.Image}}" alt="Product" style="max-width: 200px;">{{end}}
      <h2>{{.Title}}</h2>
      <div style="text-decoration: line-through; color: #999;">Was: ${{.OldPrice}}</div>
      <div style="color: #667eea; font-size: 28px; font-weight: bold;">Now: ${{.NewPrice}}</div>
      <div style="color: #28a745; font-weight: bold;">Save {{.DropPercent}}%!</div>
      <a href="{{.URL}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px;">View Product</a>
    </div>
    <p><strong>Act fast!</strong> Prices can change at any time.</p>
  </div>
  <div style="text-align: center; color: #999; font-size: 12px; padding: 20px;">
    <p>You're receiving this email because you're tracking this product on PriceDrop.</p>
    <p><a href="{{.SettingsURL}}">Manage your preferences</a></p>
  </div>
</body>
</html>`))

// SendPriceDrop sends the price drop alert email.
// Prices are formatted to two decimal places, the drop percent to one.
func (m *Mailer) SendPriceDrop(toAddress string, event model.PriceDropEvent) error {
	data := dropMailData{
		Title:       event.Title,
		URL:         event.URL,
		Image:       event.ImageURL,
		OldPrice:    fmt.Sprintf("%.2f", event.OldPrice),
		NewPrice:    fmt.Sprintf("%.2f", event.NewPrice),
		DropPercent: fmt.Sprintf("%.1f", event.DropPercent),
		SettingsURL: m.frontendURL + "/settings",
	}

	var htmlBody bytes.Buffer
	if err := dropHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("failed to render price drop email: %w", err)
	}

	textBody := fmt.Sprintf(
		"Price Drop Alert!\n\n%s\n\nWas: $%s\nNow: $%s\nSave %s%%!\n\nView Product: %s\n\nAct fast! Prices can change at any time.\n",
		data.Title, data.OldPrice, data.NewPrice, data.DropPercent, data.URL,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toAddress)
	msg.SetHeader("Subject", fmt.Sprintf("Price Drop: %s", event.Title))
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send price drop email to %s: %w", toAddress, err)
	}
	return nil
}
