package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/rigforge/pkg/plugin"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestMockBus_RecordsEvents(t *testing.T) {
	bus := NewMockBus()

	ev := plugin.Event{Topic: "test.topic", Source: "test"}
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "test.async", Source: "test"})

	events := bus.Events()
	if len(events) != 2 {
		t.Fatalf("Events len = %d, want 2", len(events))
	}
	if events[0].Topic != "test.topic" {
		t.Errorf("events[0].Topic = %q, want test.topic", events[0].Topic)
	}
	if events[1].Topic != "test.async" {
		t.Errorf("events[1].Topic = %q, want test.async", events[1].Topic)
	}
}

func TestMockBus_Reset(t *testing.T) {
	bus := NewMockBus()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "a"})
	bus.Reset()
	if len(bus.Events()) != 0 {
		t.Error("expected empty events after Reset")
	}
}

func TestClock_StartsAtEpoch(t *testing.T) {
	if got := NewClock().Now(); !got.Equal(Epoch) {
		t.Errorf("NewClock().Now() = %v, want %v", got, Epoch)
	}
	at := time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)
	if got := NewClockAt(at).Now(); !got.Equal(at) {
		t.Errorf("NewClockAt().Now() = %v, want %v", got, at)
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	got := c.Advance(90 * time.Minute)
	if want := Epoch.Add(90 * time.Minute); !got.Equal(want) || !c.Now().Equal(want) {
		t.Errorf("Advance = %v, Now = %v, want %v", got, c.Now(), want)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestMockBus_EventsFor(t *testing.T) {
	bus := NewMockBus()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: plugin.TopicProductChanged})
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "other"})

	if got := len(bus.EventsFor(plugin.TopicProductChanged)); got != 1 {
		t.Errorf("EventsFor len = %d, want 1", got)
	}
}

func TestNewItem_Defaults(t *testing.T) {
	it := NewItem()
	if it.ID == "" {
		t.Error("expected non-empty ID")
	}
	if it.Name != "Test Part" {
		t.Errorf("Name = %q, want Test Part", it.Name)
	}
	if err := it.Validate(); err != nil {
		t.Errorf("default fixture invalid: %v", err)
	}
}

func TestNewItem_WithOptions(t *testing.T) {
	it := NewItem(
		WithName("Alpha PC"),
		WithCategory("gaming-pc"),
		WithPrice(800),
		WithSpec("cpu", "Intel i5"),
		WithSpec("gpu", "RTX 4060"),
	)
	if it.Name != "Alpha PC" {
		t.Errorf("Name = %q, want Alpha PC", it.Name)
	}
	if it.Category != "gaming-pc" {
		t.Errorf("Category = %q, want gaming-pc", it.Category)
	}
	if it.Price != 800 {
		t.Errorf("Price = %v, want 800", it.Price)
	}
	if len(it.Specs) != 2 || it.Specs["cpu"] != "Intel i5" {
		t.Errorf("Specs = %v, want cpu and gpu", it.Specs)
	}
}
