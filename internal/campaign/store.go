package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Store persists campaigns in the shared SQLite database.
type Store struct {
	store plugin.Store
}

// NewStore runs the campaign migrations and returns a Store.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	if err := store.Migrate(ctx, "campaigns", migrations); err != nil {
		return nil, fmt.Errorf("campaign migrations: %w", err)
	}
	return &Store{store: store}, nil
}

const campaignColumns = `id, name, code, discount_percent, min_subtotal, starts_at, ends_at, active, created_at`

// Create validates c and inserts it. The duplicate-code check and the insert
// share one transaction.
func (s *Store) Create(ctx context.Context, c *Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	return s.store.Tx(ctx, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM campaigns WHERE code = ?`, c.Code).Scan(&n)
		if err != nil {
			return fmt.Errorf("check campaign code: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("campaign code %q: %w", c.Code, services.ErrAlreadyExists)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO campaigns (`+campaignColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Code, c.DiscountPercent.String(), c.MinSubtotal.String(),
			c.StartsAt.UTC(), c.EndsAt.UTC(), c.Active, c.CreatedAt.UTC(),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("campaign %q: %w", c.Code, services.ErrAlreadyExists)
			}
			return fmt.Errorf("insert campaign: %w", err)
		}
		return nil
	})
}

// Get returns a campaign by ID.
func (s *Store) Get(ctx context.Context, id string) (*Campaign, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	return scanOne(row, "campaign "+id)
}

// GetByCode returns a campaign by its (normalized) promo code.
func (s *Store) GetByCode(ctx context.Context, code string) (*Campaign, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE code = ?`, NormalizeCode(code))
	return scanOne(row, "campaign code "+code)
}

// List returns all campaigns, newest start first.
func (s *Store) List(ctx context.Context) ([]Campaign, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY starts_at DESC, code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// Delete removes a campaign by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.store.DB().ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return services.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, what string) (*Campaign, error) {
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return c, nil
}

func scanCampaign(row scanner) (*Campaign, error) {
	var (
		c               Campaign
		percent, minSub string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Code, &percent, &minSub,
		&c.StartsAt, &c.EndsAt, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.DiscountPercent, err = decimal.NewFromString(percent); err != nil {
		return nil, fmt.Errorf("campaign %s discount_percent: %w", c.ID, err)
	}
	if c.MinSubtotal, err = decimal.NewFromString(minSub); err != nil {
		return nil, fmt.Errorf("campaign %s min_subtotal: %w", c.ID, err)
	}
	return &c, nil
}

// Amounts are stored as decimal strings to avoid float rounding.
var migrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create campaigns table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE campaigns (
					id               TEXT PRIMARY KEY,
					name             TEXT NOT NULL,
					code             TEXT NOT NULL UNIQUE,
					discount_percent TEXT NOT NULL,
					min_subtotal     TEXT NOT NULL DEFAULT '0',
					starts_at        DATETIME NOT NULL,
					ends_at          DATETIME NOT NULL,
					active           INTEGER NOT NULL DEFAULT 1,
					created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			return err
		},
	},
}
