package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), testutil.NewStore(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := validCampaign()
	c.DiscountPercent = decimal.RequireFromString("12.5")
	if err := s.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "BF-2026" {
		t.Errorf("Code = %q, want BF-2026", got.Code)
	}
	if !got.DiscountPercent.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("DiscountPercent = %s, want 12.5", got.DiscountPercent)
	}
	if !got.MinSubtotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("MinSubtotal = %s, want 100", got.MinSubtotal)
	}
	if !got.StartsAt.Equal(start) || !got.EndsAt.Equal(end) {
		t.Errorf("window = %v..%v, want %v..%v", got.StartsAt, got.EndsAt, start, end)
	}
	if !got.Active {
		t.Error("Active = false, want true")
	}

	byCode, err := s.GetByCode(ctx, "bf-2026")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if byCode.ID != c.ID {
		t.Errorf("GetByCode ID = %q, want %q", byCode.ID, c.ID)
	}
}

func TestStore_CreateDuplicateCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, validCampaign()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := validCampaign()
	dup.Code = "BF-2026"
	err := s.Create(ctx, dup)
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("Create duplicate = %v, want ErrAlreadyExists", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List len = %d, want 1", len(list))
	}
}

func TestStore_CreateInvalid(t *testing.T) {
	s := newTestStore(t)
	c := validCampaign()
	c.Code = "x"
	if err := s.Create(context.Background(), c); !errors.Is(err, ErrInvalidCampaign) {
		t.Errorf("Create = %v, want ErrInvalidCampaign", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("empty List = %v, want non-nil empty slice", list)
	}

	older := validCampaign()
	older.Code = "SPRING"
	older.StartsAt = start.AddDate(0, -6, 0)
	newer := validCampaign()
	for _, c := range []*Campaign{older, newer} {
		if err := s.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Code != "BF-2026" || list[1].Code != "SPRING" {
		t.Errorf("List order = %v", list)
	}

	if err := s.Delete(ctx, older.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, older.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, older.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get deleted = %v, want ErrNotFound", err)
	}
}
