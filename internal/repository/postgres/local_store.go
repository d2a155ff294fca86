package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"erp-sync/internal/models"
	repo "erp-sync/internal/repository"
	postgres "erp-sync/pkg/db"
	"erp-sync/pkg/log"
)

// PsqlLocalStore reads and writes the back-office entity tables. The tables
// themselves are owned by the CRUD application; this store only touches the
// columns the synchronizer needs.
type PsqlLocalStore struct {
	psql *postgres.PostgresDatastore
}

func NewPsqlLocalStore(psql *postgres.PostgresDatastore) *PsqlLocalStore {
	return &PsqlLocalStore{
		psql: psql,
	}
}

const (
	selectProducts  = `SELECT id, id_code, name, sku, description, rental_price, replacement_value, status, updated_at FROM products`
	selectCustomers = `SELECT id, first_name, last_name, email, phone, address, status, updated_at FROM users`
	selectOrders    = `SELECT id, id_code, customer_id, order_date, status, total_amount, notes, updated_at FROM orders`
	selectInvoices  = `SELECT id, id_code, number, customer_id, issue_date, due_date, status, amount, paid_amount, notes, updated_at FROM invoices`
)

func (store *PsqlLocalStore) ListModifiedSince(ctx context.Context, kind models.Kind, since *time.Time) ([]models.LocalRecord, error) {
	switch kind {
	case models.KindProduct:
		var rows []*models.Product
		query := selectProducts + ` WHERE ($1::timestamptz IS NULL OR updated_at > $1) ORDER BY id`
		if err := store.psql.DB.SelectContext(ctx, &rows, query, since); err != nil {
			return nil, store.listError(kind, err)
		}
		return asRecords(rows), nil
	case models.KindCustomer:
		var rows []*models.Customer
		query := selectCustomers + ` WHERE role = 'customer' AND ($1::timestamptz IS NULL OR updated_at > $1) ORDER BY id`
		if err := store.psql.DB.SelectContext(ctx, &rows, query, since); err != nil {
			return nil, store.listError(kind, err)
		}
		return asRecords(rows), nil
	case models.KindOrder:
		var rows []*models.Order
		query := selectOrders + ` WHERE ($1::timestamptz IS NULL OR updated_at > $1) ORDER BY id`
		if err := store.psql.DB.SelectContext(ctx, &rows, query, since); err != nil {
			return nil, store.listError(kind, err)
		}
		return asRecords(rows), nil
	case models.KindInvoice:
		var rows []*models.Invoice
		query := selectInvoices + ` WHERE ($1::timestamptz IS NULL OR updated_at > $1) ORDER BY id`
		if err := store.psql.DB.SelectContext(ctx, &rows, query, since); err != nil {
			return nil, store.listError(kind, err)
		}
		return asRecords(rows), nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func (store *PsqlLocalStore) Get(ctx context.Context, kind models.Kind, localID int64) (models.LocalRecord, error) {
	var (
		rec models.LocalRecord
		err error
	)
	switch kind {
	case models.KindProduct:
		var row models.Product
		err = store.psql.DB.GetContext(ctx, &row, selectProducts+` WHERE id = $1`, localID)
		rec = &row
	case models.KindCustomer:
		var row models.Customer
		err = store.psql.DB.GetContext(ctx, &row, selectCustomers+` WHERE role = 'customer' AND id = $1`, localID)
		rec = &row
	case models.KindOrder:
		var row models.Order
		err = store.psql.DB.GetContext(ctx, &row, selectOrders+` WHERE id = $1`, localID)
		rec = &row
	case models.KindInvoice:
		var row models.Invoice
		err = store.psql.DB.GetContext(ctx, &row, selectInvoices+` WHERE id = $1`, localID)
		rec = &row
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrRecordNotFound
		}
		log.Logger.Error().Str("kind", string(kind)).Int64("localId", localID).Err(err).Msg("Failed to get local record")
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, localID, err)
	}
	return rec, nil
}

func (store *PsqlLocalStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var row models.Customer
	query := selectCustomers + ` WHERE role = 'customer' AND lower(email) = lower($1)`

	err := store.psql.DB.GetContext(ctx, &row, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrRecordNotFound
		}
		log.Logger.Error().Str("email", email).Err(err).Msg("Failed to find customer by email")
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return &row, nil
}

func (store *PsqlLocalStore) Create(ctx context.Context, rec models.LocalRecord) (int64, error) {
	var (
		id  int64
		err error
	)
	switch r := rec.(type) {
	case *models.Product:
		query := `
			INSERT INTO products (id_code, name, sku, description, rental_price, replacement_value, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id`
		err = store.psql.DB.GetContext(ctx, &id, query, r.IDCode, r.Name, r.SKU, r.Description, r.RentalPrice, r.ReplacementValue, r.Status)
	case *models.Customer:
		// Imported partners get a customer row without credentials; account
		// activation stays with the CRUD application.
		query := `
			INSERT INTO users (first_name, last_name, email, phone, address, role, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'customer', $6, NOW())
			RETURNING id`
		err = store.psql.DB.GetContext(ctx, &id, query, r.FirstName, r.LastName, r.Email, r.Phone, r.Address, r.Status)
	case *models.Order:
		query := `
			INSERT INTO orders (id_code, customer_id, order_date, status, total_amount, notes, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id`
		err = store.psql.DB.GetContext(ctx, &id, query, r.IDCode, r.CustomerID, r.OrderDate, r.Status, r.TotalAmount, r.Notes)
	case *models.Invoice:
		query := `
			INSERT INTO invoices (id_code, number, customer_id, issue_date, due_date, status, amount, paid_amount, notes, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			RETURNING id`
		err = store.psql.DB.GetContext(ctx, &id, query, r.IDCode, r.Number, r.CustomerID, r.IssueDate, r.DueDate, r.Status, r.Amount, r.PaidAmount, r.Notes)
	default:
		return 0, fmt.Errorf("unknown record type %T", rec)
	}
	if err != nil {
		log.Logger.Error().Str("kind", string(rec.RecordKind())).Err(err).Msg("Failed to create local record")
		return 0, fmt.Errorf("failed to create %s: %w", rec.RecordKind(), err)
	}
	log.Logger.Debug().Str("kind", string(rec.RecordKind())).Int64("localId", id).Msg("Successfully created local record")
	return id, nil
}

func (store *PsqlLocalStore) Update(ctx context.Context, localID int64, rec models.LocalRecord) error {
	var (
		result sql.Result
		err    error
	)
	switch r := rec.(type) {
	case *models.Product:
		query := `
			UPDATE products
			SET name = $2, sku = $3, description = $4, rental_price = $5, replacement_value = $6, status = $7, updated_at = NOW()
			WHERE id = $1`
		result, err = store.psql.DB.ExecContext(ctx, query, localID, r.Name, r.SKU, r.Description, r.RentalPrice, r.ReplacementValue, r.Status)
	case *models.Customer:
		query := `
			UPDATE users
			SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, updated_at = NOW()
			WHERE id = $1 AND role = 'customer'`
		result, err = store.psql.DB.ExecContext(ctx, query, localID, r.FirstName, r.LastName, r.Email, r.Phone, r.Address)
	case *models.Order:
		query := `
			UPDATE orders
			SET customer_id = $2, order_date = $3, status = $4, total_amount = $5, notes = $6, updated_at = NOW()
			WHERE id = $1`
		result, err = store.psql.DB.ExecContext(ctx, query, localID, r.CustomerID, r.OrderDate, r.Status, r.TotalAmount, r.Notes)
	case *models.Invoice:
		query := `
			UPDATE invoices
			SET number = $2, customer_id = $3, issue_date = $4, due_date = $5, status = $6, amount = $7, paid_amount = $8, notes = $9, updated_at = NOW()
			WHERE id = $1`
		result, err = store.psql.DB.ExecContext(ctx, query, localID, r.Number, r.CustomerID, r.IssueDate, r.DueDate, r.Status, r.Amount, r.PaidAmount, r.Notes)
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}
	if err != nil {
		log.Logger.Error().Str("kind", string(rec.RecordKind())).Int64("localId", localID).Err(err).Msg("Failed to update local record")
		return fmt.Errorf("failed to update %s %d: %w", rec.RecordKind(), localID, err)
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		return repo.ErrRecordNotFound
	}
	return nil
}

func (store *PsqlLocalStore) listError(kind models.Kind, err error) error {
	log.Logger.Error().Str("kind", string(kind)).Err(err).Msg("Failed to list modified local records")
	return fmt.Errorf("failed to list modified %s records: %w", kind, err)
}

func asRecords[T models.LocalRecord](rows []T) []models.LocalRecord {
	records := make([]models.LocalRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row)
	}
	return records
}
