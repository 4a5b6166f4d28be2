package campaign

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var (
	start = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
)

func validCampaign() *Campaign {
	return &Campaign{
		Name:            "Black Friday",
		Code:            " bf-2026 ",
		DiscountPercent: decimal.NewFromInt(15),
		MinSubtotal:     decimal.NewFromInt(100),
		StartsAt:        start,
		EndsAt:          end,
		Active:          true,
	}
}

func TestValidate_NormalizesCode(t *testing.T) {
	c := validCampaign()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Code != "BF-2026" {
		t.Errorf("Code = %q, want %q", c.Code, "BF-2026")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Campaign)
	}{
		{"empty name", func(c *Campaign) { c.Name = "  " }},
		{"short code", func(c *Campaign) { c.Code = "ab" }},
		{"long code", func(c *Campaign) { c.Code = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456" }},
		{"code with space", func(c *Campaign) { c.Code = "BF 2026" }},
		{"zero percent", func(c *Campaign) { c.DiscountPercent = decimal.Zero }},
		{"negative percent", func(c *Campaign) { c.DiscountPercent = decimal.NewFromInt(-5) }},
		{"over 100 percent", func(c *Campaign) { c.DiscountPercent = decimal.RequireFromString("100.01") }},
		{"negative minimum", func(c *Campaign) { c.MinSubtotal = decimal.NewFromInt(-1) }},
		{"missing end", func(c *Campaign) { c.EndsAt = time.Time{} }},
		{"end equals start", func(c *Campaign) { c.EndsAt = c.StartsAt }},
		{"end before start", func(c *Campaign) { c.EndsAt = c.StartsAt.Add(-time.Hour) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCampaign()
			tc.mutate(c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalidCampaign) {
				t.Errorf("Validate() = %v, want ErrInvalidCampaign", err)
			}
		})
	}
}

func TestValidate_Boundaries(t *testing.T) {
	c := validCampaign()
	c.DiscountPercent = decimal.NewFromInt(100)
	c.MinSubtotal = decimal.Zero
	c.Code = "abc"
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestQuote_RoundsToCents(t *testing.T) {
	tests := []struct {
		name         string
		percent      string
		subtotal     string
		wantDiscount string
		wantTotal    string
	}{
		{"half cent rounds up", "15", "119.99", "18.00", "101.99"},
		{"third of a cent", "10", "133.33", "13.33", "120.00"},
		{"fractional percent", "12.5", "200", "25.00", "175.00"},
		{"full discount", "100", "150.50", "150.50", "0.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCampaign()
			_ = c.Validate()
			c.DiscountPercent = decimal.RequireFromString(tc.percent)

			q, err := c.Quote(decimal.RequireFromString(tc.subtotal), start.Add(time.Hour))
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if got := q.Discount.StringFixed(2); got != tc.wantDiscount {
				t.Errorf("discount = %s, want %s", got, tc.wantDiscount)
			}
			if got := q.Total.StringFixed(2); got != tc.wantTotal {
				t.Errorf("total = %s, want %s", got, tc.wantTotal)
			}
			if !q.Subtotal.Sub(q.Discount).Equal(q.Total) {
				t.Errorf("subtotal - discount != total")
			}
		})
	}
}

func TestQuote_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Campaign)
		subtotal string
		at       time.Time
		want     error
	}{
		{"disabled", func(c *Campaign) { c.Active = false }, "150", start.Add(time.Hour), ErrCampaignInactive},
		{"not started", func(*Campaign) {}, "150", start.Add(-time.Second), ErrCampaignInactive},
		{"expired at end", func(*Campaign) {}, "150", end, ErrCampaignInactive},
		{"below minimum", func(*Campaign) {}, "99.99", start.Add(time.Hour), ErrBelowMinimum},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCampaign()
			_ = c.Validate()
			tc.mutate(c)
			_, err := c.Quote(decimal.RequireFromString(tc.subtotal), tc.at)
			if !errors.Is(err, tc.want) {
				t.Errorf("Quote() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestQuote_WindowBoundaries(t *testing.T) {
	c := validCampaign()
	_ = c.Validate()

	if _, err := c.Quote(decimal.NewFromInt(100), start); err != nil {
		t.Errorf("Quote at start = %v, want nil", err)
	}
	if _, err := c.Quote(decimal.NewFromInt(100), end.Add(-time.Nanosecond)); err != nil {
		t.Errorf("Quote just before end = %v, want nil", err)
	}
}
