// messaging/twilio.go
package messaging

import (
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DeliveryError is a non-2xx response from Twilio. Status and Body are kept
// so per-subscriber failure entries can carry the provider's exact answer.
type DeliveryError struct {
	Status int
	Code   int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("twilio delivery failed: status %d (code %d): %s", e.Status, e.Code, e.Body)
}

// TwilioSender sends SMS through the Twilio Messages API, Basic-authenticated
// with the account SID and auth token.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// SendSMS posts one message and returns the provider message SID. Twilio API
// errors come back as *DeliveryError; transport errors pass through as-is.
func (s *TwilioSender) SendSMS(to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			return "", &DeliveryError{Status: restErr.Status, Code: restErr.Code, Body: restErr.Message}
		}
		return "", err
	}

	// Twilio occasionally answers 2xx without a SID; treat it as sent.
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
