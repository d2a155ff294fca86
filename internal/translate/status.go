package translate

import (
	"time"

	"github.com/shopspring/decimal"

	"erp-sync/internal/models"
)

// statusTable is an explicit finite lookup between the local and remote
// status vocabularies of one kind. Values absent on one side translate to
// that side's draft-equivalent fallback; callers surface a warning instead
// of failing the record.
type statusTable struct {
	toRemote       map[string]string
	toLocal        map[string]string
	localFallback  string
	remoteFallback string
}

func (t statusTable) Remote(local string) (string, bool) {
	if v, ok := t.toRemote[local]; ok {
		return v, true
	}
	return t.remoteFallback, false
}

func (t statusTable) Local(remote string) (string, bool) {
	if v, ok := t.toLocal[remote]; ok {
		return v, true
	}
	return t.localFallback, false
}

//nolint:gochecknoglobals
var orderStatuses = statusTable{
	toRemote: map[string]string{
		string(models.OrderPending):    "draft",
		string(models.OrderConfirmed):  "sent",
		string(models.OrderInProgress): "sale",
		string(models.OrderCompleted):  "done",
		string(models.OrderCancelled):  "cancel",
	},
	toLocal: map[string]string{
		"draft":  string(models.OrderPending),
		"sent":   string(models.OrderConfirmed),
		"sale":   string(models.OrderInProgress),
		"done":   string(models.OrderCompleted),
		"cancel": string(models.OrderCancelled),
	},
	localFallback:  string(models.OrderPending),
	remoteFallback: "draft",
}

// Invoice statuses are lossy on export: overdue collapses to posted because
// the ERP has no overdue state. The import side re-derives overdue from
// due-date and paid-amount instead of trusting the remote state verbatim.
//
//nolint:gochecknoglobals
var invoiceStatuses = statusTable{
	toRemote: map[string]string{
		string(models.InvoiceDraft):     "draft",
		string(models.InvoiceSent):      "posted",
		string(models.InvoicePaid):      "paid",
		string(models.InvoicePartial):   "partial",
		string(models.InvoiceOverdue):   "posted",
		string(models.InvoiceCancelled): "cancel",
	},
	toLocal: map[string]string{
		"draft":   string(models.InvoiceDraft),
		"posted":  string(models.InvoiceSent),
		"paid":    string(models.InvoicePaid),
		"partial": string(models.InvoicePartial),
		"cancel":  string(models.InvoiceCancelled),
	},
	localFallback:  string(models.InvoiceDraft),
	remoteFallback: "draft",
}

// DeriveInvoiceStatus recovers the local invoice status from what the remote
// side can express. A posted invoice past its due date with an outstanding
// balance is overdue locally even though the ERP only knows "posted".
func DeriveInvoiceStatus(mapped models.InvoiceStatus, dueDate time.Time, amount, paid decimal.Decimal, now time.Time) models.InvoiceStatus {
	if mapped != models.InvoiceSent && mapped != models.InvoicePartial {
		return mapped
	}
	if now.After(dueDate) && paid.LessThan(amount) {
		return models.InvoiceOverdue
	}
	return mapped
}
