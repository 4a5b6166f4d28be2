package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spf13/viper"

	"github.com/HerbHall/rigforge/internal/config"
	"github.com/HerbHall/rigforge/internal/event"
	"github.com/HerbHall/rigforge/internal/testutil"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// testPlugin is a minimal module for testing.
type testPlugin struct {
	name      string
	initErr   error
	validErr  error
	routes    []plugin.Route
	subs      []plugin.Subscription
	log       *[]string
	initCalls int
}

func newTestPlugin(name string, log *[]string) *testPlugin {
	return &testPlugin{name: name, log: log}
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return "1.0.0" }

func (p *testPlugin) Init(_ context.Context, _ plugin.Dependencies) error {
	p.initCalls++
	p.record("init")
	return p.initErr
}

func (p *testPlugin) Start(_ context.Context) error {
	p.record("start")
	return nil
}

func (p *testPlugin) Stop() error {
	p.record("stop")
	return nil
}

func (p *testPlugin) Routes() []plugin.Route               { return p.routes }
func (p *testPlugin) Subscriptions() []plugin.Subscription { return p.subs }
func (p *testPlugin) ValidateConfig() error                { return p.validErr }

func (p *testPlugin) record(what string) {
	if p.log != nil {
		*p.log = append(*p.log, p.name+":"+what)
	}
}

func noDeps(name string) plugin.Dependencies {
	return plugin.Dependencies{Logger: testutil.Logger().Named(name)}
}

func emptyConfig() plugin.Config {
	return config.New(viper.New())
}

func TestRegister(t *testing.T) {
	reg := NewRegistry(testutil.Logger())

	p := newTestPlugin("alpha", nil)
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}
	if err := reg.Register(newTestPlugin("", nil)); err == nil {
		t.Fatal("Register() expected error for empty name, got nil")
	}
}

func TestLifecycleOrder(t *testing.T) {
	var log []string
	reg := NewRegistry(testutil.Logger())
	_ = reg.Register(newTestPlugin("a", &log))
	_ = reg.Register(newTestPlugin("b", &log))

	ctx := context.Background()
	if err := reg.InitAll(ctx, emptyConfig(), noDeps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := reg.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	reg.StopAll()

	want := []string{"a:init", "b:init", "a:start", "b:start", "b:stop", "a:stop"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestInitAll_DisabledPlugin(t *testing.T) {
	var log []string
	reg := NewRegistry(testutil.Logger())
	a := newTestPlugin("a", &log)
	a.routes = []plugin.Route{{Method: http.MethodGet, Path: "/x"}}
	_ = reg.Register(a)
	_ = reg.Register(newTestPlugin("b", &log))

	v := viper.New()
	v.Set("plugins.a.enabled", false)
	if err := reg.InitAll(context.Background(), config.New(v), noDeps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}

	if a.initCalls != 0 {
		t.Errorf("disabled plugin Init called %d times", a.initCalls)
	}
	if reg.Enabled("a") {
		t.Error("Enabled(a) = true, want false")
	}
	if !reg.Enabled("b") {
		t.Error("Enabled(b) = false, want true")
	}
	if _, ok := reg.AllRoutes()["a"]; ok {
		t.Error("AllRoutes includes disabled plugin")
	}
}

func TestInitAll_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("init", func(t *testing.T) {
		reg := NewRegistry(testutil.Logger())
		p := newTestPlugin("bad", nil)
		p.initErr = boom
		_ = reg.Register(p)
		if err := reg.InitAll(context.Background(), emptyConfig(), noDeps); !errors.Is(err, boom) {
			t.Errorf("InitAll = %v, want wrapped boom", err)
		}
	})

	t.Run("validate", func(t *testing.T) {
		reg := NewRegistry(testutil.Logger())
		p := newTestPlugin("bad", nil)
		p.validErr = boom
		_ = reg.Register(p)
		if err := reg.InitAll(context.Background(), emptyConfig(), noDeps); !errors.Is(err, boom) {
			t.Errorf("InitAll = %v, want wrapped boom", err)
		}
	})
}

func TestInitAll_WiresSubscriptions(t *testing.T) {
	bus := event.NewBus(testutil.Logger())
	got := 0

	p := newTestPlugin("sub", nil)
	p.subs = []plugin.Subscription{{
		Topic:   plugin.TopicProductChanged,
		Handler: func(context.Context, plugin.Event) { got++ },
	}}

	reg := NewRegistry(testutil.Logger())
	_ = reg.Register(p)
	deps := func(string) plugin.Dependencies {
		return plugin.Dependencies{Logger: testutil.Logger(), Bus: bus}
	}
	if err := reg.InitAll(context.Background(), emptyConfig(), deps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}

	ctx := context.Background()
	_ = bus.Publish(ctx, plugin.Event{Topic: plugin.TopicProductChanged})
	if got != 1 {
		t.Fatalf("handler calls = %d, want 1", got)
	}

	reg.StopAll()
	_ = bus.Publish(ctx, plugin.Event{Topic: plugin.TopicProductChanged})
	if got != 1 {
		t.Errorf("handler called after StopAll, calls = %d", got)
	}
}

func TestAllRoutes(t *testing.T) {
	reg := NewRegistry(testutil.Logger())
	p := newTestPlugin("catalog", nil)
	p.routes = []plugin.Route{
		{Method: http.MethodGet, Path: "/products"},
		{Method: http.MethodPost, Path: "/query"},
	}
	_ = reg.Register(p)
	_ = reg.Register(newTestPlugin("quiet", nil))
	if err := reg.InitAll(context.Background(), emptyConfig(), noDeps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}

	routes := reg.AllRoutes()
	if len(routes["catalog"]) != 2 {
		t.Errorf("catalog routes = %d, want 2", len(routes["catalog"]))
	}
	if _, ok := routes["quiet"]; ok {
		t.Error("module without routes present in AllRoutes")
	}
	if all := reg.All(); len(all) != 2 || all[0].Name() != "catalog" {
		t.Errorf("All() = %v, want [catalog quiet]", all)
	}
}
