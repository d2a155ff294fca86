// Package translate holds the pure field correspondence between back-office
// records and their remote ERP shapes. No I/O happens here: identifiers that
// require a mapping lookup are resolved by the caller and passed in as refs.
package translate

import (
	"fmt"
	"strings"
	"time"

	"erp-sync/internal/erp"
	"erp-sync/internal/models"
)

// Back-reference fields every exported record carries so the remote object
// itself knows its back-office identity. They make reconciliation possible
// even if the mapping store is lost.
const (
	BackRefIDField   = "x_backoffice_id"
	BackRefCodeField = "x_backoffice_id_code"
)

// Warning flags a degraded translation (for example an unknown status that
// fell back to the draft equivalent). It never fails the record.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("translation warning on %s: %s", w.Field, w.Message)
}

// Refs carries resolved remote identifiers for the export direction.
type Refs struct {
	CompanyID       int64
	PartnerRemoteID int64
}

// LocalRefs carries resolved local identifiers for the import direction.
type LocalRefs struct {
	CustomerLocalID int64
}

// RemoteModel names the remote collection holding records of a kind.
func RemoteModel(kind models.Kind) string {
	switch kind {
	case models.KindProduct:
		return "product.template"
	case models.KindCustomer:
		return "res.partner"
	case models.KindOrder:
		return "sale.order"
	case models.KindInvoice:
		return "account.move"
	}
	return ""
}

// ImportDomain builds the remote query filter for one import pass: the
// kind's base filter plus the remote last-modified marker when a watermark
// exists.
func ImportDomain(kind models.Kind, since *time.Time) []any {
	var domain []any
	switch kind {
	case models.KindCustomer:
		domain = append(domain, []any{"customer_rank", ">", 0})
	case models.KindInvoice:
		domain = append(domain, []any{"move_type", "=", "out_invoice"})
	}
	if since != nil {
		domain = append(domain, []any{"write_date", ">", since.UTC().Format(erp.DateTimeLayout)})
	}
	return domain
}

// ImportFields lists the remote fields an import pass reads for a kind.
func ImportFields(kind models.Kind) []string {
	switch kind {
	case models.KindProduct:
		return []string{"id", "name", "default_code", "list_price", "standard_price", "description", BackRefIDField, BackRefCodeField}
	case models.KindCustomer:
		return []string{"id", "name", "email", "phone", "street", BackRefIDField}
	case models.KindOrder:
		return []string{"id", "name", "partner_id", "date_order", "state", "client_order_ref", "note", "amount_total", BackRefIDField, BackRefCodeField}
	case models.KindInvoice:
		return []string{"id", "name", "partner_id", "invoice_date", "invoice_date_due", "state", "ref", "narration", "amount_total", "amount_residual", BackRefIDField, BackRefCodeField}
	}
	return nil
}

// ToRemote shapes a local record into the remote field map for its kind.
func ToRemote(rec models.LocalRecord, refs Refs) (erp.Record, []Warning, error) {
	switch r := rec.(type) {
	case *models.Product:
		return productToRemote(r, refs), nil, nil
	case *models.Customer:
		return customerToRemote(r, refs), nil, nil
	case *models.Order:
		return orderToRemote(r, refs)
	case *models.Invoice:
		return invoiceToRemote(r, refs)
	default:
		return nil, nil, fmt.Errorf("unsupported local record type %T", rec)
	}
}

// ToLocal shapes a remote record into a local record of the given kind.
// now anchors time-dependent derivations so the function stays pure.
func ToLocal(kind models.Kind, r erp.Record, refs LocalRefs, now time.Time) (models.LocalRecord, []Warning, error) {
	switch kind {
	case models.KindProduct:
		return productToLocal(r), nil, nil
	case models.KindCustomer:
		return customerToLocal(r), nil, nil
	case models.KindOrder:
		return orderToLocal(r, refs)
	case models.KindInvoice:
		return invoiceToLocal(r, refs, now)
	default:
		return nil, nil, fmt.Errorf("unsupported kind %q", kind)
	}
}

func productToRemote(p *models.Product, refs Refs) erp.Record {
	price, _ := p.RentalPrice.Float64()
	cost, _ := p.ReplacementValue.Float64()
	return erp.Record{
		"name":           p.Name,
		"default_code":   p.SKU,
		"list_price":     price,
		"standard_price": cost,
		"type":           "product",
		"description":    p.Description,
		"company_id":     refs.CompanyID,
		BackRefIDField:   p.ID,
		BackRefCodeField: p.IDCode,
	}
}

func productToLocal(r erp.Record) *models.Product {
	remoteID := r.Int("id")
	sku := r.Str("default_code")
	if sku == "" {
		sku = fmt.Sprintf("ERP-%d", remoteID)
	}
	idCode := r.Str(BackRefCodeField)
	if idCode == "" {
		idCode = fmt.Sprintf("PRD-ERP-%d", remoteID)
	}
	return &models.Product{
		IDCode:           idCode,
		Name:             r.Str("name"),
		SKU:              sku,
		Description:      r.Str("description"),
		RentalPrice:      r.Decimal("list_price"),
		ReplacementValue: r.Decimal("standard_price"),
		Status:           "active",
	}
}

func customerToRemote(c *models.Customer, refs Refs) erp.Record {
	return erp.Record{
		"name":          c.FullName(),
		"email":         c.Email,
		"phone":         c.Phone,
		"street":        c.Address,
		"customer_rank": 1,
		"company_id":    refs.CompanyID,
		BackRefIDField:  c.ID,
	}
}

func customerToLocal(r erp.Record) *models.Customer {
	first, last := splitName(r.Str("name"))
	return &models.Customer{
		FirstName: first,
		LastName:  last,
		Email:     r.Str("email"),
		Phone:     r.Str("phone"),
		Address:   r.Str("street"),
		Status:    "active",
	}
}

func orderToRemote(o *models.Order, refs Refs) (erp.Record, []Warning, error) {
	if refs.PartnerRemoteID == 0 {
		return nil, nil, fmt.Errorf("order %d: customer mapping required before export", o.ID)
	}

	var warnings []Warning
	state, known := orderStatuses.Remote(string(o.Status))
	if !known {
		warnings = append(warnings, Warning{Field: "state", Message: fmt.Sprintf("unknown order status %q, using %q", o.Status, state)})
	}

	return erp.Record{
		"partner_id":       refs.PartnerRemoteID,
		"date_order":       o.OrderDate.Format(erp.DateLayout),
		"state":            state,
		"client_order_ref": o.IDCode,
		"note":             o.Notes,
		"company_id":       refs.CompanyID,
		BackRefIDField:     o.ID,
		BackRefCodeField:   o.IDCode,
	}, warnings, nil
}

func orderToLocal(r erp.Record, refs LocalRefs) (*models.Order, []Warning, error) {
	if refs.CustomerLocalID == 0 {
		return nil, nil, fmt.Errorf("remote order %d: local customer required before import", r.Int("id"))
	}

	var warnings []Warning
	status, known := orderStatuses.Local(r.Str("state"))
	if !known {
		warnings = append(warnings, Warning{Field: "state", Message: fmt.Sprintf("unknown remote order state %q, using %q", r.Str("state"), status)})
	}

	orderDate, ok := r.Time("date_order", erp.DateTimeLayout)
	if !ok {
		orderDate, _ = r.Time("date_order", erp.DateLayout)
	}

	idCode := r.Str("client_order_ref")
	if idCode == "" {
		idCode = fmt.Sprintf("ORD-ERP-%d", r.Int("id"))
	}

	return &models.Order{
		IDCode:      idCode,
		CustomerID:  refs.CustomerLocalID,
		OrderDate:   orderDate,
		Status:      models.OrderStatus(status),
		TotalAmount: r.Decimal("amount_total"),
		Notes:       r.Str("note"),
	}, warnings, nil
}

func invoiceToRemote(inv *models.Invoice, refs Refs) (erp.Record, []Warning, error) {
	if refs.PartnerRemoteID == 0 {
		return nil, nil, fmt.Errorf("invoice %d: customer mapping required before export", inv.ID)
	}

	var warnings []Warning
	state, known := invoiceStatuses.Remote(string(inv.Status))
	if !known {
		warnings = append(warnings, Warning{Field: "state", Message: fmt.Sprintf("unknown invoice status %q, using %q", inv.Status, state)})
	}

	return erp.Record{
		"partner_id":       refs.PartnerRemoteID,
		"move_type":        "out_invoice",
		"invoice_date":     inv.IssueDate.Format(erp.DateLayout),
		"invoice_date_due": inv.DueDate.Format(erp.DateLayout),
		"state":            state,
		"ref":              inv.IDCode,
		"name":             inv.Number,
		"narration":        inv.Notes,
		"company_id":       refs.CompanyID,
		BackRefIDField:     inv.ID,
		BackRefCodeField:   inv.IDCode,
	}, warnings, nil
}

func invoiceToLocal(r erp.Record, refs LocalRefs, now time.Time) (*models.Invoice, []Warning, error) {
	if refs.CustomerLocalID == 0 {
		return nil, nil, fmt.Errorf("remote invoice %d: local customer required before import", r.Int("id"))
	}

	var warnings []Warning
	mapped, known := invoiceStatuses.Local(r.Str("state"))
	if !known {
		warnings = append(warnings, Warning{Field: "state", Message: fmt.Sprintf("unknown remote invoice state %q, using %q", r.Str("state"), mapped)})
	}

	issueDate, ok := r.Time("invoice_date", erp.DateLayout)
	if !ok {
		issueDate = now
	}
	dueDate, ok := r.Time("invoice_date_due", erp.DateLayout)
	if !ok {
		dueDate = issueDate.AddDate(0, 0, 30)
	}

	amount := r.Decimal("amount_total")
	paid := amount.Sub(r.Decimal("amount_residual"))
	status := DeriveInvoiceStatus(models.InvoiceStatus(mapped), dueDate, amount, paid, now)

	idCode := r.Str("ref")
	if idCode == "" {
		idCode = r.Str(BackRefCodeField)
	}
	if idCode == "" {
		idCode = fmt.Sprintf("INV-ERP-%d", r.Int("id"))
	}
	number := r.Str("name")
	if number == "" || number == "/" {
		number = idCode
	}

	return &models.Invoice{
		IDCode:     idCode,
		Number:     number,
		CustomerID: refs.CustomerLocalID,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Status:     status,
		Amount:     amount,
		PaidAmount: paid,
		Notes:      r.Str("narration"),
	}, warnings, nil
}

func splitName(full string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
