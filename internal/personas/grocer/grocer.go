// Package grocer implements the grocery store persona. Callers browse a
// catalog, fill a cart, and place orders that land in the order history
// collection.
package grocer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const (
	ID      = "grocer"
	Version = "1.1.0"
)

// Item is one catalog entry.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
}

// Catalog is the store inventory persisted at data/catalog.json.
type Catalog struct {
	Items []Item `json:"items"`
}

// Find looks an item up by name, case-insensitively.
func (c Catalog) Find(name string) (Item, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, item := range c.Items {
		if strings.ToLower(item.Name) == name {
			return item, true
		}
	}
	return Item{}, false
}

// CartLine is one item and quantity in the cart.
type CartLine struct {
	Item     string  `json:"item"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a placed grocery order in the history collection.
type Order struct {
	OrderID   string     `json:"orderId"`
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// defaultCatalog seeds data/catalog.json on first use.
var defaultCatalog = Catalog{Items: []Item{
	{Name: "milk", Price: 2.50, Unit: "liter"},
	{Name: "eggs", Price: 3.20, Unit: "dozen"},
	{Name: "bread", Price: 2.80, Unit: "loaf"},
	{Name: "butter", Price: 4.10, Unit: "pack"},
	{Name: "flour", Price: 1.90, Unit: "kg"},
	{Name: "sugar", Price: 1.60, Unit: "kg"},
	{Name: "tomatoes", Price: 2.30, Unit: "kg"},
	{Name: "pasta", Price: 1.40, Unit: "pack"},
	{Name: "cheese", Price: 5.50, Unit: "pack"},
	{Name: "basil", Price: 1.20, Unit: "bunch"},
	{Name: "olive oil", Price: 6.80, Unit: "bottle"},
	{Name: "garlic", Price: 0.90, Unit: "head"},
}}

// dishes maps a dish name to the catalog items it needs.
var dishes = map[string][]string{
	"pasta al pomodoro": {"pasta", "tomatoes", "garlic", "olive oil", "basil"},
	"pancakes":          {"flour", "eggs", "milk", "butter", "sugar"},
	"grilled cheese":    {"bread", "butter", "cheese"},
}

// Agent is the grocer persona.
type Agent struct {
	mu   sync.Mutex
	cart []CartLine
}

// New returns a grocer with an empty cart.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Info() agent.Info {
	return agent.Info{
		ID:          ID,
		Name:        "Gus",
		Description: "Helps callers shop a grocery catalog and place orders.",
		Version:     Version,
		Greeting:    "Hi there, you've reached Greenfield Grocers. What do you need today?",
		Instructions: "You are a helpful grocery clerk. Offer the catalog, add items " +
			"to the cart with quantities, suggest ingredients for dishes, and place " +
			"the order when the caller is done.",
	}
}

func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cart = nil
}

// Cart returns a copy of the current cart.
func (a *Agent) Cart() []CartLine {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]CartLine, len(a.cart))
	copy(out, a.cart)
	return out
}

func (a *Agent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name:        "list_catalog",
			Description: "Read out what the store stocks with prices.",
			Handler:     a.listCatalog,
		},
		{
			Name:        "add_to_cart",
			Description: "Add a catalog item to the cart.",
			Params: []agent.Param{
				{Name: "item", Type: agent.ParamString, Required: true},
				{Name: "quantity", Type: agent.ParamInt},
			},
			Handler: a.addToCart,
		},
		{
			Name:        "remove_from_cart",
			Description: "Remove an item from the cart entirely.",
			Params: []agent.Param{
				{Name: "item", Type: agent.ParamString, Required: true},
			},
			Handler: a.removeFromCart,
		},
		{
			Name:        "show_cart",
			Description: "Read the cart contents and running total back.",
			Handler:     a.showCart,
		},
		{
			Name:        "add_ingredients_for_dish",
			Description: "Add everything needed for a known dish to the cart.",
			Params: []agent.Param{
				{Name: "dish", Type: agent.ParamString, Required: true},
			},
			Handler: a.addIngredientsForDish,
		},
		{
			Name:        "place_order",
			Description: "Place the order for everything in the cart.",
			Handler:     a.placeOrder,
		},
		{
			Name:        "order_status",
			Description: "Look up a past order by its ID.",
			Params: []agent.Param{
				{Name: "order_id", Type: agent.ParamString, Required: true},
			},
			Handler: a.orderStatus,
		},
		{
			Name:        "list_past_orders",
			Description: "Summarize the caller's order history.",
			Handler:     a.listPastOrders,
		},
	}
}

// loadCatalog reads the catalog, seeding the default one on first use.
func (a *Agent) loadCatalog(ctx *agent.Context) (Catalog, error) {
	var cat Catalog
	_, err := ctx.Store.LoadJSON(store.CatalogJSON, &cat)
	if err == nil && len(cat.Items) > 0 {
		return cat, nil
	}

	body, mErr := json.Marshal(defaultCatalog)
	if mErr != nil {
		return Catalog{}, fmt.Errorf("grocer: encode catalog: %w", mErr)
	}
	meta := store.Metadata{AgentID: ID, Version: Version, SessionID: ctx.SessionID}
	if wErr := ctx.Store.WriteJSON(store.CatalogJSON, body, meta); wErr != nil {
		return Catalog{}, fmt.Errorf("grocer: seed catalog: %w", wErr)
	}
	return defaultCatalog, nil
}

func (a *Agent) listCatalog(ctx *agent.Context, args agent.Args) (string, error) {
	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(cat.Items))
	for _, item := range cat.Items {
		parts = append(parts, fmt.Sprintf("%s at %.2f per %s", item.Name, item.Price, item.Unit))
	}
	return "We have " + strings.Join(parts, ", ") + ".", nil
}

func (a *Agent) addToCart(ctx *agent.Context, args agent.Args) (string, error) {
	name, err := args.String("item")
	if err != nil {
		return "", err
	}
	qty := args.IntOr("quantity", 1)
	if qty < 1 {
		return "", fmt.Errorf("grocer: quantity must be at least 1")
	}

	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return "", err
	}
	item, ok := cat.Find(name)
	if !ok {
		return "", fmt.Errorf("grocer: we do not stock %q", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.cart {
		if a.cart[i].Item == item.Name {
			a.cart[i].Quantity += qty
			return fmt.Sprintf("Added %d more %s, %d in the cart now.",
				qty, item.Name, a.cart[i].Quantity), nil
		}
	}
	a.cart = append(a.cart, CartLine{Item: item.Name, Quantity: qty, Price: item.Price})
	return fmt.Sprintf("Added %d %s to your cart.", qty, item.Name), nil
}

func (a *Agent) removeFromCart(ctx *agent.Context, args agent.Args) (string, error) {
	name, err := args.String("item")
	if err != nil {
		return "", err
	}
	name = strings.ToLower(name)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.cart {
		if a.cart[i].Item == name {
			a.cart = append(a.cart[:i], a.cart[i+1:]...)
			return fmt.Sprintf("Took %s out of the cart.", name), nil
		}
	}
	return "", fmt.Errorf("grocer: %q is not in the cart", name)
}

func cartTotal(lines []CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (a *Agent) showCart(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cart) == 0 {
		return "Your cart is empty.", nil
	}
	parts := make([]string, 0, len(a.cart))
	for _, line := range a.cart {
		parts = append(parts, fmt.Sprintf("%d %s", line.Quantity, line.Item))
	}
	return fmt.Sprintf("You have %s. That comes to %.2f.",
		strings.Join(parts, ", "), cartTotal(a.cart)), nil
}

func (a *Agent) addIngredientsForDish(ctx *agent.Context, args agent.Args) (string, error) {
	dish, err := args.String("dish")
	if err != nil {
		return "", err
	}
	ingredients, ok := dishes[strings.ToLower(dish)]
	if !ok {
		known := make([]string, 0, len(dishes))
		for name := range dishes {
			known = append(known, name)
		}
		return "", fmt.Errorf("grocer: I don't have a recipe for %q, try one of: %s",
			dish, strings.Join(known, ", "))
	}
	for _, name := range ingredients {
		if _, err := a.addToCart(ctx, agent.Args{"item": name}); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Added everything for %s: %s.",
		strings.ToLower(dish), strings.Join(ingredients, ", ")), nil
}

func (a *Agent) placeOrder(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	lines := make([]CartLine, len(a.cart))
	copy(lines, a.cart)
	a.mu.Unlock()
	if len(lines) == 0 {
		return "", fmt.Errorf("grocer: the cart is empty")
	}

	order := Order{
		OrderID:   uuid.NewString(),
		Lines:     lines,
		Total:     cartTotal(lines),
		Status:    "placed",
		CreatedAt: ctx.Now().UTC(),
	}
	if err := ctx.Store.AppendRecord(store.GroceryOrders, order); err != nil {
		return "", fmt.Errorf("grocer: place order: %w", err)
	}
	ctx.Note("grocery order " + order.OrderID + " placed")

	a.mu.Lock()
	a.cart = nil
	a.mu.Unlock()
	return fmt.Sprintf("Order placed! Your confirmation number is %s and the total is %.2f.",
		order.OrderID, order.Total), nil
}

func (a *Agent) history(ctx *agent.Context) ([]Order, error) {
	var orders []Order
	if err := ctx.Store.LoadCollection(store.GroceryOrders, &orders); err != nil {
		return nil, fmt.Errorf("grocer: load order history: %w", err)
	}
	return orders, nil
}

func (a *Agent) orderStatus(ctx *agent.Context, args agent.Args) (string, error) {
	id, err := args.String("order_id")
	if err != nil {
		return "", err
	}
	orders, err := a.history(ctx)
	if err != nil {
		return "", err
	}
	for _, order := range orders {
		if order.OrderID == id {
			return fmt.Sprintf("Order %s is %s, %d items, total %.2f.",
				order.OrderID, order.Status, len(order.Lines), order.Total), nil
		}
	}
	return "", fmt.Errorf("grocer: no order with ID %q", id)
}

func (a *Agent) listPastOrders(ctx *agent.Context, args agent.Args) (string, error) {
	orders, err := a.history(ctx)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "You have no past orders with us.", nil
	}
	parts := make([]string, 0, len(orders))
	for _, order := range orders {
		parts = append(parts, fmt.Sprintf("%s for %.2f", order.OrderID, order.Total))
	}
	return fmt.Sprintf("You have %d past orders: %s.", len(orders), strings.Join(parts, "; ")), nil
}
