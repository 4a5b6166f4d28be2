package campaign

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCampaign is returned when a campaign fails validation.
	ErrInvalidCampaign = errors.New("invalid campaign")

	// ErrCampaignInactive is returned when a code is quoted outside its
	// campaign's active window or while the campaign is switched off.
	ErrCampaignInactive = errors.New("campaign is not active")

	// ErrBelowMinimum is returned when the subtotal does not reach the
	// campaign's minimum.
	ErrBelowMinimum = errors.New("subtotal below campaign minimum")
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

var hundred = decimal.NewFromInt(100)

// Campaign is a promo-code discount campaign.
type Campaign struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinSubtotal     decimal.Decimal `json:"min_subtotal"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NormalizeCode trims and upper-cases a promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate normalizes the code and checks the campaign invariants.
func (c *Campaign) Validate() error {
	c.Code = NormalizeCode(c.Code)
	c.Name = strings.TrimSpace(c.Name)

	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidCampaign)
	case !codePattern.MatchString(c.Code):
		return fmt.Errorf("%w: code must be 3-32 characters of A-Z, 0-9, '_' or '-'", ErrInvalidCampaign)
	case !c.DiscountPercent.IsPositive() || c.DiscountPercent.GreaterThan(hundred):
		return fmt.Errorf("%w: discount_percent must be in (0, 100], got %s", ErrInvalidCampaign, c.DiscountPercent)
	case c.MinSubtotal.IsNegative():
		return fmt.Errorf("%w: min_subtotal must be >= 0, got %s", ErrInvalidCampaign, c.MinSubtotal)
	case c.StartsAt.IsZero() || c.EndsAt.IsZero():
		return fmt.Errorf("%w: starts_at and ends_at are required", ErrInvalidCampaign)
	case !c.EndsAt.After(c.StartsAt):
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidCampaign)
	}
	return nil
}

// Quote is the price breakdown for a subtotal with a promo code applied.
// Amounts are rounded to cents.
type Quote struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Quote applies the campaign discount to subtotal at time now. The window is
// half-open: StartsAt is inclusive and EndsAt exclusive.
func (c *Campaign) Quote(subtotal decimal.Decimal, now time.Time) (Quote, error) {
	switch {
	case !c.Active:
		return Quote{}, fmt.Errorf("%w: %s is disabled", ErrCampaignInactive, c.Code)
	case now.Before(c.StartsAt):
		return Quote{}, fmt.Errorf("%w: %s starts at %s", ErrCampaignInactive, c.Code, c.StartsAt.UTC().Format(time.RFC3339))
	case !now.Before(c.EndsAt):
		return Quote{}, fmt.Errorf("%w: %s expired at %s", ErrCampaignInactive, c.Code, c.EndsAt.UTC().Format(time.RFC3339))
	case subtotal.LessThan(c.MinSubtotal):
		return Quote{}, fmt.Errorf("%w: %s requires %s", ErrBelowMinimum, c.Code, c.MinSubtotal.StringFixed(2))
	}

	sub := subtotal.Round(2)
	discount := sub.Mul(c.DiscountPercent).Div(hundred).Round(2)
	return Quote{
		Code:     c.Code,
		Subtotal: sub,
		Discount: discount,
		Total:    sub.Sub(discount),
	}, nil
}
