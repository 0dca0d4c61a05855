package config

import (
	"fmt"
	"os"

	"github.com/twilio/twilio-go"
)

// SMS gateway selection: "twilio" or empty for mock mode (messages are
// logged, not sent).
func GetSMSGateway() string {
	return os.Getenv("SMS_GATEWAY")
}

func InitTwilio() (*twilio.RestClient, string, error) {
	sid, err := getAccountSID()
	if err != nil {
		return nil, "", err
	}

	token, err := getAuthToken()
	if err != nil {
		return nil, "", err
	}

	from, err := getFromNumber()
	if err != nil {
		return nil, "", err
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: *sid,
		Password: *token,
	})
	if client == nil {
		return nil, "", fmt.Errorf("failed to initialize twilio client")
	}

	return client, *from, nil
}

func getAccountSID() (*string, error) {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	if sid == "" {
		return nil, fmt.Errorf("Twilio Account SID is missing, value: %s", sid)
	}
	return &sid, nil
}

func getAuthToken() (*string, error) {
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("Twilio Auth Token is missing, value: %s", token)
	}
	return &token, nil
}

func getFromNumber() (*string, error) {
	number := os.Getenv("TWILIO_FROM_NUMBER")
	if number == "" {
		return nil, fmt.Errorf("Twilio From Number is missing, value: %s", number)
	}
	return &number, nil
}
