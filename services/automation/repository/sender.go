package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"

	"schoolops/domain"
)

type twilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(client *twilio.RestClient, from string) domain.SMSSender {
	return &twilioSender{
		client: client,
		from:   from,
	}
}

func (ts *twilioSender) Send(ctx context.Context, phone, message string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(ts.from)
	params.SetBody(message)

	_, err := ts.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("could not send sms to %s: %v", phone, err)
	}

	return nil
}

// mockSender logs instead of sending. Used when no SMS gateway is configured.
type mockSender struct {
	log *logrus.Logger
}

func NewMockSender(log *logrus.Logger) domain.SMSSender {
	return &mockSender{
		log: log,
	}
}

func (ms *mockSender) Send(ctx context.Context, phone, message string) error {
	ms.log.WithFields(logrus.Fields{
		"phone":   phone,
		"message": message,
	}).Info("[SMS MOCK] message not sent")
	return nil
}

type emailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(dialer *gomail.Dialer, from string) domain.EmailSender {
	return &emailSender{
		dialer: dialer,
		from:   from,
	}
}

func (es *emailSender) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", es.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := es.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send email to %s: %v", to, err)
	}

	return nil
}
