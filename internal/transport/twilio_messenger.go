package transport

import (
	"context"
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// TwilioMessenger delivers conversational messages over Twilio SMS/WhatsApp.
// Choice prompts render as a numbered list; the reply comes back as the
// number or the option id in the message body.
type TwilioMessenger struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioMessenger(accountSID, authToken, fromPhone string) *TwilioMessenger {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioMessenger{client: client, from: fromPhone}
}

func (m *TwilioMessenger) SendText(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(m.from)
	params.SetBody(body)
	if _, err := m.client.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to send message to %s", to)
		return err
	}
	return nil
}

func (m *TwilioMessenger) SendChoices(ctx context.Context, to, body string, choices []Choice) error {
	var b strings.Builder
	b.WriteString(body)
	for i, c := range choices {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, c.Label))
	}
	return m.SendText(ctx, to, b.String())
}
