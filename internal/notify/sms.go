package notify

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSNotifier texts a seller when they receive a new rating. It is a no-op
// unless TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are
// set. Send failures are logged, never surfaced to the rating flow.
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewSMSNotifier() *SMSNotifier {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")

	if sid == "" || token == "" || from == "" {
		log.Println("SMS notifications disabled (Twilio not configured)")
		return &SMSNotifier{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})

	return &SMSNotifier{client: client, from: from}
}

// RatingReceived notifies a seller about a new rating.
func (n *SMSNotifier) RatingReceived(phone string, score int) {
	if n.client == nil || phone == "" {
		return
	}

	params := &api.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(n.from)
	params.SetBody(fmt.Sprintf("You just received a new %d-star rating on Tradepost!", score))

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		log.Printf("⚠️ Failed to send rating SMS: %v", err)
	}
}
