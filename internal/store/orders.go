package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Order is the locally persisted record of a provisioning order.
type Order struct {
	OrderNo       string
	TransactionID string
	PackageCode   string
	Email         string
	TranNo        string
	ICCID         string
	Status        string
	TestMode      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ErrOrderNotFound is returned when no local record matches.
var ErrOrderNotFound = errors.New("order not found")

// RecordOrder inserts a new order record.
func (s *Store) RecordOrder(ctx context.Context, order *Order) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if order == nil || order.OrderNo == "" {
		return errors.New("order number is required")
	}

	now := time.Now().Unix()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO orders (order_no, transaction_id, package_code, email, tran_no, iccid, status, test_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_no) DO UPDATE SET
			tran_no = excluded.tran_no,
			iccid = excluded.iccid,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		order.OrderNo, order.TransactionID, order.PackageCode, nullString(order.Email),
		nullString(order.TranNo), nullString(order.ICCID), order.Status,
		boolToInt(order.TestMode), now, now,
	)
	if err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

// UpdateOrderStatus updates the status and profile identifiers of an order.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNo, status, tranNo, iccid string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE orders
		SET status = ?,
			tran_no = COALESCE(NULLIF(?, ''), tran_no),
			iccid = COALESCE(NULLIF(?, ''), iccid),
			updated_at = ?
		WHERE order_no = ?`,
		status, tranNo, iccid, time.Now().Unix(), orderNo,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetOrder returns one order by order number.
func (s *Store) GetOrder(ctx context.Context, orderNo string) (*Order, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT order_no, transaction_id, package_code, email, tran_no, iccid, status, test_mode, created_at, updated_at
		FROM orders WHERE order_no = ?`, orderNo)

	order, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns the most recent orders, newest first.
func (s *Store) ListOrders(ctx context.Context, limit int) ([]*Order, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT order_no, transaction_id, package_code, email, tran_no, iccid, status, test_mode, created_at, updated_at
		FROM orders ORDER BY created_at DESC, order_no DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func scanOrder(scan func(...any) error) (*Order, error) {
	var (
		order     Order
		email     sql.NullString
		tranNo    sql.NullString
		iccid     sql.NullString
		testMode  int
		createdAt int64
		updatedAt int64
	)
	if err := scan(&order.OrderNo, &order.TransactionID, &order.PackageCode, &email,
		&tranNo, &iccid, &order.Status, &testMode, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	order.Email = email.String
	order.TranNo = tranNo.String
	order.ICCID = iccid.String
	order.TestMode = testMode != 0
	order.CreatedAt = time.Unix(createdAt, 0).UTC()
	order.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &order, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
