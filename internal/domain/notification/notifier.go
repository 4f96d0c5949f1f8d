package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/agroci/agroci-api/internal/domain/credit"
	"github.com/agroci/agroci-api/internal/pkg/logger"
)

type userSender interface {
	SendToUser(userID uuid.UUID, event *Event) error
}

// CreditsGrantedData is the payload of a credits.granted event.
type CreditsGrantedData struct {
	Reference string `json:"reference"`
	Credits   int    `json:"credits"`
	Balance   int    `json:"balance"`
}

// CreditNotifier pushes committed grants to the owner's open sockets.
type CreditNotifier struct {
	sender userSender
}

// NewCreditNotifier creates a WS-backed credit notifier.
func NewCreditNotifier(sender userSender) *CreditNotifier {
	return &CreditNotifier{sender: sender}
}

func (n *CreditNotifier) CreditsGranted(ctx context.Context, evt credit.GrantedEvent) {
	if n == nil || n.sender == nil || evt.UserID == nil {
		// Profile has no auth user yet, nobody can be listening.
		return
	}

	err := n.sender.SendToUser(*evt.UserID, &Event{
		Type: EventCreditsGranted,
		Data: CreditsGrantedData{
			Reference: evt.Reference,
			Credits:   evt.Credits,
			Balance:   evt.Balance,
		},
	})
	if err != nil {
		logger.LogWarn(ctx, "Failed to publish credit event", "reference", evt.Reference, "error", err.Error())
	}
}
