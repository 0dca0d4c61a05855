package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

func InitEmailer() (*gomail.Dialer, string, error) {
	host, err := getSMTPHost()
	if err != nil {
		return nil, "", err
	}

	port, err := getSMTPPort()
	if err != nil {
		return nil, "", err
	}

	sender, err := getEmailSender()
	if err != nil {
		return nil, "", err
	}

	password, err := getEmailPassword()
	if err != nil {
		return nil, "", err
	}

	return gomail.NewDialer(*host, *port, *sender, *password), *sender, nil
}

func getSMTPHost() (*string, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil, fmt.Errorf("smtp host invalid, value : %s", host)
	}
	return &host, nil
}

func getSMTPPort() (*int, error) {
	raw := os.Getenv("SMTP_PORT")
	port, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("smtp port invalid, value : %s", raw)
	}
	return &port, nil
}

func getEmailSender() (*string, error) {
	sender := os.Getenv("EMAIL_SENDER")
	if sender == "" {
		return nil, fmt.Errorf("email sender invalid, value : %s", sender)
	}
	return &sender, nil
}

func getEmailPassword() (*string, error) {
	pass := os.Getenv("EMAIL_SENDER_PASSWORD")
	if pass == "" {
		return nil, fmt.Errorf("email password invalid, value : %s", pass)
	}
	return &pass, nil
}
