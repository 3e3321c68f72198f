package barista

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/config"
	"github.com/mkerring/talkshop/internal/store"
)

func newTestContext(t *testing.T) *agent.Context {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitWorkspace(dir); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC)
	st := store.New(cfg, store.WithClock(func() time.Time { return fixed }))
	return agent.NewContext(cfg, st, nil, "sess-1").
		WithClock(func() time.Time { return fixed })
}

func call(t *testing.T, a *Agent, name string, args agent.Args, ctx *agent.Context) string {
	t.Helper()
	tool, ok := agent.FindTool(a, name)
	if !ok {
		t.Fatalf("no tool %s", name)
	}
	out, err := tool.Handler(ctx, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func buildOrder(t *testing.T, a *Agent, ctx *agent.Context) {
	t.Helper()
	call(t, a, "update_drink_type", agent.Args{"drink_type": "Latte"}, ctx)
	call(t, a, "update_size", agent.Args{"size": "medium"}, ctx)
	call(t, a, "update_milk", agent.Args{"milk": "oat"}, ctx)
	call(t, a, "add_extra", agent.Args{"extra": "extra shot"}, ctx)
	call(t, a, "update_name", agent.Args{"name": "Priya"}, ctx)
}

func TestSaveOrderRefusesUnconfirmed(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	buildOrder(t, a, ctx)

	tool, _ := agent.FindTool(a, "save_order")
	if _, err := tool.Handler(ctx, agent.Args{"confirmed": false}); err == nil {
		t.Fatal("expected refusal for unconfirmed order")
	}
}

func TestSaveOrderRefusesIncomplete(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "update_drink_type", agent.Args{"drink_type": "mocha"}, ctx)

	tool, _ := agent.FindTool(a, "save_order")
	_, err := tool.Handler(ctx, agent.Args{"confirmed": true})
	if err == nil {
		t.Fatal("expected refusal for incomplete order")
	}
	for _, want := range []string{"size", "milk preference", "name"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should name missing %s", err, want)
		}
	}
}

func TestSaveOrderWritesFileAndResets(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	buildOrder(t, a, ctx)

	reply := call(t, a, "save_order", agent.Args{"confirmed": true}, ctx)
	if !strings.Contains(reply, "Order in") {
		t.Fatalf("unexpected reply %q", reply)
	}

	ref := store.OrderFile(ctx.Now(), "Priya")
	path := ref.Path(ctx.Config)
	if !strings.HasSuffix(path, "order_20260301_093015_Priya.json") {
		t.Fatalf("unexpected order path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("order file not written: %v", err)
	}

	var saved CoffeeOrder
	meta, err := ctx.Store.LoadJSON(ref, &saved)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if saved.DrinkType != "latte" || saved.Size != "medium" || saved.Milk != "oat" {
		t.Fatalf("unexpected saved order %+v", saved)
	}
	if len(saved.Extras) != 1 || saved.Extras[0] != "extra shot" {
		t.Fatalf("extras = %v", saved.Extras)
	}
	if meta.AgentID != ID {
		t.Fatalf("metadata agent = %s", meta.AgentID)
	}

	if got := a.Order(); got.DrinkType != "" || got.Name != "" {
		t.Fatalf("order not reset after save: %+v", got)
	}
}

func TestAddExtraIgnoresDuplicates(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "add_extra", agent.Args{"extra": "caramel"}, ctx)
	call(t, a, "add_extra", agent.Args{"extra": "Caramel"}, ctx)
	if got := a.Order().Extras; len(got) != 1 {
		t.Fatalf("extras = %v, want one entry", got)
	}
}

func TestUpdateSizeRejectsUnknown(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	tool, _ := agent.FindTool(a, "update_size")
	if _, err := tool.Handler(ctx, agent.Args{"size": "venti"}); err == nil {
		t.Fatal("expected error for unknown size")
	}
}

func TestCheckOrderStatusListsMissing(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "update_drink_type", agent.Args{"drink_type": "cappuccino"}, ctx)
	status := call(t, a, "check_order_status", agent.Args{}, ctx)
	if !strings.Contains(status, "Still need") {
		t.Fatalf("status %q should list missing fields", status)
	}
}
