package credit

import (
	"context"

	"github.com/agroci/agroci-api/internal/domain/plan"
	"github.com/agroci/agroci-api/internal/pkg/email"
	"github.com/agroci/agroci-api/internal/pkg/logger"
)

// MultiNotifier fans a grant out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) CreditsGranted(ctx context.Context, evt GrantedEvent) {
	for _, n := range m {
		if n != nil {
			n.CreditsGranted(ctx, evt)
		}
	}
}

// ReceiptSender queues the purchase receipt email.
type ReceiptSender interface {
	SendCreditReceipt(to string, data email.ReceiptData)
}

// ReceiptNotifier emails the payer a receipt for each grant.
type ReceiptNotifier struct {
	sender  ReceiptSender
	catalog *plan.Catalog
}

func NewReceiptNotifier(sender ReceiptSender, catalog *plan.Catalog) *ReceiptNotifier {
	return &ReceiptNotifier{sender: sender, catalog: catalog}
}

func (n *ReceiptNotifier) CreditsGranted(ctx context.Context, evt GrantedEvent) {
	if evt.Email == "" {
		logger.LogWarn(ctx, "No payer email on event, skipping receipt", "reference", evt.Reference)
		return
	}

	planName := evt.Plan
	if p, err := n.catalog.Get(evt.Plan); err == nil {
		planName = p.Name
	}

	n.sender.SendCreditReceipt(evt.Email, email.ReceiptData{
		PlanName:  planName,
		Credits:   evt.Credits,
		Amount:    n.catalog.FormatAmount(evt.Amount),
		Balance:   evt.Balance,
		Reference: evt.Reference,
	})
}
