package grocer

import (
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
	fixed := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	st := store.New(cfg, store.WithClock(func() time.Time { return fixed }))
	return agent.NewContext(cfg, st, nil, "sess-2").
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

func TestAddToCartSeedsCatalog(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	reply := call(t, a, "add_to_cart", agent.Args{"item": "Milk", "quantity": 2}, ctx)
	if !strings.Contains(reply, "2 milk") {
		t.Fatalf("unexpected reply %q", reply)
	}

	var cat Catalog
	if _, err := ctx.Store.LoadJSON(store.CatalogJSON, &cat); err != nil {
		t.Fatalf("catalog not seeded: %v", err)
	}
	if _, ok := cat.Find("bread"); !ok {
		t.Fatal("seeded catalog missing bread")
	}
}

func TestAddToCartMergesQuantities(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "add_to_cart", agent.Args{"item": "eggs"}, ctx)
	call(t, a, "add_to_cart", agent.Args{"item": "eggs", "quantity": 2}, ctx)

	cart := a.Cart()
	if len(cart) != 1 || cart[0].Quantity != 3 {
		t.Fatalf("cart = %+v, want one line with quantity 3", cart)
	}
}

func TestAddToCartRejectsUnknownItem(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	tool, _ := agent.FindTool(a, "add_to_cart")
	if _, err := tool.Handler(ctx, agent.Args{"item": "caviar"}); err == nil {
		t.Fatal("expected error for unstocked item")
	}
}

func TestAddIngredientsForDish(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "add_ingredients_for_dish", agent.Args{"dish": "Pancakes"}, ctx)

	cart := a.Cart()
	if len(cart) != 5 {
		t.Fatalf("cart has %d lines, want 5", len(cart))
	}
}

func TestPlaceOrderAppendsHistoryAndClearsCart(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "add_to_cart", agent.Args{"item": "bread"}, ctx)
	call(t, a, "add_to_cart", agent.Args{"item": "cheese"}, ctx)

	reply := call(t, a, "place_order", agent.Args{}, ctx)
	if !strings.Contains(reply, "Order placed") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(a.Cart()) != 0 {
		t.Fatal("cart not cleared after placing order")
	}

	var orders []Order
	if err := ctx.Store.LoadCollection(store.GroceryOrders, &orders); err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("history has %d orders, want 1", len(orders))
	}
	if orders[0].Status != "placed" || orders[0].OrderID == "" {
		t.Fatalf("unexpected order %+v", orders[0])
	}

	status := call(t, a, "order_status", agent.Args{"order_id": orders[0].OrderID}, ctx)
	if !strings.Contains(status, "placed") {
		t.Fatalf("unexpected status %q", status)
	}
	history := call(t, a, "list_past_orders", agent.Args{}, ctx)
	if !strings.Contains(history, "1 past orders") {
		t.Fatalf("unexpected history %q", history)
	}
}

func TestPlaceOrderRefusesEmptyCart(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	tool, _ := agent.FindTool(a, "place_order")
	if _, err := tool.Handler(ctx, agent.Args{}); err == nil {
		t.Fatal("expected error placing an empty order")
	}
}
