package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies a class of record synchronized between the back office and the ERP.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindOrder    Kind = "order"
	KindInvoice  Kind = "invoice"
)

func (k Kind) String() string {
	return string(k)
}

// Kinds lists every synchronized kind in the order dependencies resolve:
// customers before the documents that reference them.
func Kinds() []Kind {
	return []Kind{KindProduct, KindCustomer, KindOrder, KindInvoice}
}

func ValidKind(s string) bool {
	switch Kind(s) {
	case KindProduct, KindCustomer, KindOrder, KindInvoice:
		return true
	}
	return false
}

// Direction of a sync pass relative to the back office.
type Direction string

const (
	DirectionExport        Direction = "export"
	DirectionImport        Direction = "import"
	DirectionBidirectional Direction = "bidirectional"
)

func (d Direction) String() string {
	return string(d)
}

func ValidDirection(s string) bool {
	switch Direction(s) {
	case DirectionExport, DirectionImport, DirectionBidirectional:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoicePartial   InvoiceStatus = "partial"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// LocalRecord is a back-office record of one of the synchronized kinds.
type LocalRecord interface {
	LocalID() int64
	RecordKind() Kind
	ModifiedAt() time.Time
}

type Product struct {
	ID               int64           `db:"id"`
	IDCode           string          `db:"id_code"`
	Name             string          `db:"name"`
	SKU              string          `db:"sku"`
	Description      string          `db:"description"`
	RentalPrice      decimal.Decimal `db:"rental_price"`
	ReplacementValue decimal.Decimal `db:"replacement_value"`
	Status           string          `db:"status"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (p *Product) LocalID() int64        { return p.ID }
func (p *Product) RecordKind() Kind      { return KindProduct }
func (p *Product) ModifiedAt() time.Time { return p.UpdatedAt }

// Customer is a user row with role "customer"; the rest of the user table is
// owned by the CRUD layer and never touched here.
type Customer struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c *Customer) LocalID() int64        { return c.ID }
func (c *Customer) RecordKind() Kind      { return KindCustomer }
func (c *Customer) ModifiedAt() time.Time { return c.UpdatedAt }

func (c *Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Order struct {
	ID          int64           `db:"id"`
	IDCode      string          `db:"id_code"`
	CustomerID  int64           `db:"customer_id"`
	OrderDate   time.Time       `db:"order_date"`
	Status      OrderStatus     `db:"status"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Notes       string          `db:"notes"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (o *Order) LocalID() int64        { return o.ID }
func (o *Order) RecordKind() Kind      { return KindOrder }
func (o *Order) ModifiedAt() time.Time { return o.UpdatedAt }

type Invoice struct {
	ID         int64           `db:"id"`
	IDCode     string          `db:"id_code"`
	Number     string          `db:"number"`
	CustomerID int64           `db:"customer_id"`
	IssueDate  time.Time       `db:"issue_date"`
	DueDate    time.Time       `db:"due_date"`
	Status     InvoiceStatus   `db:"status"`
	Amount     decimal.Decimal `db:"amount"`
	PaidAmount decimal.Decimal `db:"paid_amount"`
	Notes      string          `db:"notes"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (i *Invoice) LocalID() int64        { return i.ID }
func (i *Invoice) RecordKind() Kind      { return KindInvoice }
func (i *Invoice) ModifiedAt() time.Time { return i.UpdatedAt }
