package smtp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Client is the SMTP email sender.
type Client struct {
	dialer *gomail.Dialer
}

func NewClient(dialer *gomail.Dialer) *Client {
	return &Client{dialer: dialer}
}

// Send delivers one plain-text email and returns the generated Message-ID.
func (c *Client) Send(to, subject, body string) (string, error) {
	msg := gomail.NewMessage()

	domain := viper.GetString("service.smtp.domain")
	messageID := generateMessageID(domain)

	msg.SetHeader("Message-ID", messageID)
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", viper.GetString("service.smtp.email"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if err := c.dialer.DialAndSend(msg); err != nil {
		return "", err
	}

	return messageID, nil
}

func generateMessageID(domain string) string {
	uniqueID := uuid.New().String()
	return fmt.Sprintf("<%s@%s>", uniqueID, domain)
}
