package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, tenant_id, property_id, amount, amount_paid, payment_method, payment_date,
	status, description, billing_month, billing_year, receipt_id, receipt_status,
	receipt_url, receipt_error, gateway_reference, created_at, updated_at`

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type paymentRepository struct {
	db *database.Database
}

// NewPaymentRepository creates a PostgreSQL-backed PaymentRepository.
func NewPaymentRepository(db *database.Database) PaymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(row rowScanner) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.PropertyID,
		&p.Amount,
		&p.AmountPaid,
		&p.PaymentMethod,
		&p.PaymentDate,
		&p.Status,
		&p.Description,
		&p.BillingMonth,
		&p.BillingYear,
		&p.ReceiptID,
		&p.ReceiptStatus,
		&p.ReceiptURL,
		&p.ReceiptError,
		&p.GatewayReference,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the record; created_at and updated_at come back from the database.
func (r *paymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	query := `
		INSERT INTO payments (
			id, tenant_id, property_id, amount, amount_paid, payment_method, payment_date,
			status, description, billing_month, billing_year, receipt_id, receipt_status,
			receipt_url, receipt_error, gateway_reference
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		p.ID, p.TenantID, p.PropertyID, p.Amount, p.AmountPaid, p.PaymentMethod, p.PaymentDate,
		p.Status, p.Description, p.BillingMonth, p.BillingYear, p.ReceiptID, p.ReceiptStatus,
		p.ReceiptURL, p.ReceiptError, p.GatewayReference,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translateError("insert payment", err)
}

func (r *paymentRepository) getOne(ctx context.Context, op, where string, args ...any) (*models.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where + ` LIMIT 1`

	p, err := scanPayment(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(op, err)
	}
	return p, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	return r.getOne(ctx, "get payment", `id = $1`, id)
}

func (r *paymentRepository) GetByReceiptID(ctx context.Context, receiptID string) (*models.PaymentRecord, error) {
	return r.getOne(ctx, "get payment by receipt", `receipt_id = $1`, receiptID)
}

func (r *paymentRepository) FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, month string, year int) (*models.PaymentRecord, error) {
	return r.getOne(ctx, "find payment by period",
		`tenant_id = $1 AND billing_month = $2 AND billing_year = $3`, tenantID, month, year)
}

// List applies the optional filters and orders by payment_date DESC, seq DESC.
// seq is a BIGSERIAL so ties resolve to the most recently inserted record first.
func (r *paymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.TenantID != nil {
		add("tenant_id = $%d", *filter.TenantID)
	}
	if filter.From != nil {
		add("payment_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("payment_date <= $%d", *filter.To)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Method != nil {
		add("payment_method = $%d", *filter.Method)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY payment_date DESC, seq DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list payments", err)
	}
	defer rows.Close()

	results := make([]models.PaymentRecord, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate payments", err)
	}
	return results, nil
}

const updatePaymentSQL = `
	UPDATE payments SET
		tenant_id = $2, property_id = $3, amount = $4, amount_paid = $5, payment_method = $6,
		payment_date = $7, status = $8, description = $9, billing_month = $10, billing_year = $11,
		receipt_status = $12, receipt_url = $13, receipt_error = $14, gateway_reference = $15,
		updated_at = now()
	WHERE id = $1`

func paymentUpdateArgs(p *models.PaymentRecord) []interface{} {
	return []interface{}{
		p.ID, p.TenantID, p.PropertyID, p.Amount, p.AmountPaid, p.PaymentMethod,
		p.PaymentDate, p.Status, p.Description, p.BillingMonth, p.BillingYear,
		p.ReceiptStatus, p.ReceiptURL, p.ReceiptError, p.GatewayReference,
	}
}

func (r *paymentRepository) Update(ctx context.Context, p *models.PaymentRecord) (bool, error) {
	return r.update(ctx, "update payment", updatePaymentSQL+`
		RETURNING created_at, updated_at`, p, paymentUpdateArgs(p))
}

func (r *paymentRepository) UpdateIf(ctx context.Context, p *models.PaymentRecord, expect PaymentState) (bool, error) {
	args := append(paymentUpdateArgs(p), expect.Status, expect.AmountPaid)
	return r.update(ctx, "update payment if unchanged", updatePaymentSQL+` AND status = $16 AND amount_paid = $17
		RETURNING created_at, updated_at`, p, args)
}

func (r *paymentRepository) update(ctx context.Context, op, query string, p *models.PaymentRecord, args []interface{}) (bool, error) {
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, translateError(op, err)
	}
	return true, nil
}

func (r *paymentRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE payments SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, translateError("set payment status", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentRepository) UpdateReceipt(ctx context.Context, id uuid.UUID, receipt ReceiptUpdate) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE payments
		SET receipt_status = $2, receipt_url = $3, receipt_error = $4, updated_at = now()
		WHERE id = $1
	`, id, receipt.Status, receipt.URL, receipt.Error)
	if err != nil {
		return false, translateError("update receipt", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete payment", err)
	}
	return tag.RowsAffected() > 0, nil
}
