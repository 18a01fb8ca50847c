package db

import (
	"context"
	"time"
)

// Order is one submission attempt stored in the journal.
type Order struct {
	ID              string
	Direction       string
	Asset           string
	Pair            string
	Amount          float64
	Hold            time.Duration
	ExchangeOrderID string
	Status          string
	Error           string
	CreatedAt       time.Time
}

// Directive is one parsed trade directive stored in the journal.
type Directive struct {
	ID           string
	Direction    string
	Asset        string
	Hold         time.Duration
	ArticleCount int
	CreatedAt    time.Time
}

// CreateOrder inserts a new order row.
func (d *Database) CreateOrder(ctx context.Context, o Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO orders (
			id, direction, asset, pair, amount, hold_seconds, exchange_order_id, status, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ID, o.Direction, o.Asset, o.Pair, o.Amount, int64(o.Hold/time.Second),
		o.ExchangeOrderID, o.Status, o.Error, o.CreatedAt.UTC(),
	)
	return err
}

// ListOrders returns the most recent orders first; limit <= 0 means 100.
func (d *Database) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, direction, asset, pair, amount, hold_seconds, exchange_order_id, status, error, created_at
		FROM orders
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Order
	for rows.Next() {
		var (
			o    Order
			hold int64
		)
		if err := rows.Scan(&o.ID, &o.Direction, &o.Asset, &o.Pair, &o.Amount, &hold,
			&o.ExchangeOrderID, &o.Status, &o.Error, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Hold = time.Duration(hold) * time.Second
		res = append(res, o)
	}
	return res, rows.Err()
}

// CreateDirective inserts a new directive row.
func (d *Database) CreateDirective(ctx context.Context, dir Directive) error {
	if dir.CreatedAt.IsZero() {
		dir.CreatedAt = time.Now()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO directives (id, direction, asset, hold_seconds, article_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, dir.ID, dir.Direction, dir.Asset, int64(dir.Hold/time.Second), dir.ArticleCount, dir.CreatedAt.UTC())
	return err
}

// ListDirectives returns the most recent directives first; limit <= 0 means 100.
func (d *Database) ListDirectives(ctx context.Context, limit int) ([]Directive, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, direction, asset, hold_seconds, article_count, created_at
		FROM directives
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Directive
	for rows.Next() {
		var (
			dir  Directive
			hold int64
		)
		if err := rows.Scan(&dir.ID, &dir.Direction, &dir.Asset, &hold, &dir.ArticleCount, &dir.CreatedAt); err != nil {
			return nil, err
		}
		dir.Hold = time.Duration(hold) * time.Second
		res = append(res, dir)
	}
	return res, rows.Err()
}
