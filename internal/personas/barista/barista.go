// Package barista implements the coffee shop persona. It walks a caller
// through building a drink order and saves the confirmed order as a JSON
// file under orders/.
package barista

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const (
	ID      = "barista"
	Version = "1.2.0"
)

var validSizes = map[string]bool{"small": true, "medium": true, "large": true}

// CoffeeOrder is the order being assembled over the conversation.
type CoffeeOrder struct {
	DrinkType string   `json:"drinkType"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
}

// MissingFields lists the required fields not yet captured. Extras are
// the only optional part of an order.
func (o CoffeeOrder) MissingFields() []string {
	var missing []string
	if o.DrinkType == "" {
		missing = append(missing, "drink type")
	}
	if o.Size == "" {
		missing = append(missing, "size")
	}
	if o.Milk == "" {
		missing = append(missing, "milk preference")
	}
	if o.Name == "" {
		missing = append(missing, "name")
	}
	return missing
}

// Summary renders the order the way the agent reads it back.
func (o CoffeeOrder) Summary() string {
	var b strings.Builder
	if o.Size != "" {
		b.WriteString(o.Size + " ")
	}
	if o.DrinkType != "" {
		b.WriteString(o.DrinkType)
	} else {
		b.WriteString("drink")
	}
	if o.Milk != "" {
		b.WriteString(" with " + o.Milk)
	}
	if len(o.Extras) > 0 {
		b.WriteString(", extras: " + strings.Join(o.Extras, ", "))
	}
	if o.Name != "" {
		b.WriteString(", for " + o.Name)
	}
	return b.String()
}

// Agent is the barista persona.
type Agent struct {
	mu    sync.Mutex
	order CoffeeOrder
}

// New returns a barista with an empty order.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Info() agent.Info {
	return agent.Info{
		ID:          ID,
		Name:        "Bella",
		Description: "Takes coffee orders and saves confirmed ones to disk.",
		Version:     Version,
		Greeting:    "Welcome to Brew & Bean! What can I get started for you today?",
		Instructions: "You are a friendly barista. Collect the drink type, size, milk " +
			"and any extras, ask for a name, read the order back, and only save " +
			"once the customer confirms.",
	}
}

func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = CoffeeOrder{}
}

// Order returns a copy of the in-progress order.
func (a *Agent) Order() CoffeeOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order
}

func (a *Agent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name:        "update_drink_type",
			Description: "Set the drink the customer asked for.",
			Params: []agent.Param{
				{Name: "drink_type", Type: agent.ParamString, Required: true},
			},
			Handler: a.updateDrinkType,
		},
		{
			Name:        "update_size",
			Description: "Set the drink size: small, medium or large.",
			Params: []agent.Param{
				{Name: "size", Type: agent.ParamString, Required: true},
			},
			Handler: a.updateSize,
		},
		{
			Name:        "update_milk",
			Description: "Set the milk preference.",
			Params: []agent.Param{
				{Name: "milk", Type: agent.ParamString, Required: true},
			},
			Handler: a.updateMilk,
		},
		{
			Name:        "add_extra",
			Description: "Add an extra like a shot or syrup. Duplicates are ignored.",
			Params: []agent.Param{
				{Name: "extra", Type: agent.ParamString, Required: true},
			},
			Handler: a.addExtra,
		},
		{
			Name:        "update_name",
			Description: "Record the customer's name for the cup.",
			Params: []agent.Param{
				{Name: "name", Type: agent.ParamString, Required: true},
			},
			Handler: a.updateName,
		},
		{
			Name:        "check_order_status",
			Description: "Read the order back and list anything still missing.",
			Handler:     a.checkOrderStatus,
		},
		{
			Name:        "save_order",
			Description: "Persist the order. Only call after the customer confirms.",
			Params: []agent.Param{
				{Name: "confirmed", Type: agent.ParamBool, Required: true},
			},
			Handler: a.saveOrder,
		},
	}
}

func (a *Agent) updateDrinkType(ctx *agent.Context, args agent.Args) (string, error) {
	drink, err := args.String("drink_type")
	if err != nil {
		return "", err
	}
	if drink == "" {
		return "", fmt.Errorf("barista: drink type cannot be empty")
	}
	a.mu.Lock()
	a.order.DrinkType = strings.ToLower(drink)
	a.mu.Unlock()
	return fmt.Sprintf("One %s, got it.", strings.ToLower(drink)), nil
}

func (a *Agent) updateSize(ctx *agent.Context, args agent.Args) (string, error) {
	size, err := args.String("size")
	if err != nil {
		return "", err
	}
	size = strings.ToLower(size)
	if !validSizes[size] {
		return "", fmt.Errorf("barista: size must be small, medium or large, not %q", size)
	}
	a.mu.Lock()
	a.order.Size = size
	a.mu.Unlock()
	return fmt.Sprintf("A %s, sure thing.", size), nil
}

func (a *Agent) updateMilk(ctx *agent.Context, args agent.Args) (string, error) {
	milk, err := args.String("milk")
	if err != nil {
		return "", err
	}
	if milk == "" {
		return "", fmt.Errorf("barista: milk cannot be empty")
	}
	a.mu.Lock()
	a.order.Milk = strings.ToLower(milk)
	a.mu.Unlock()
	return fmt.Sprintf("Sure, %s.", strings.ToLower(milk)), nil
}

func (a *Agent) addExtra(ctx *agent.Context, args agent.Args) (string, error) {
	extra, err := args.String("extra")
	if err != nil {
		return "", err
	}
	if extra == "" {
		return "", fmt.Errorf("barista: extra cannot be empty")
	}
	extra = strings.ToLower(extra)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.order.Extras {
		if existing == extra {
			return fmt.Sprintf("You already have %s on there.", extra), nil
		}
	}
	a.order.Extras = append(a.order.Extras, extra)
	return fmt.Sprintf("Added %s.", extra), nil
}

func (a *Agent) updateName(ctx *agent.Context, args agent.Args) (string, error) {
	name, err := args.String("name")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("barista: name cannot be empty")
	}
	a.mu.Lock()
	a.order.Name = name
	a.mu.Unlock()
	return fmt.Sprintf("Thanks, %s.", name), nil
}

func (a *Agent) checkOrderStatus(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	order := a.order
	a.mu.Unlock()

	missing := order.MissingFields()
	if len(missing) > 0 {
		return fmt.Sprintf("So far: %s. Still need: %s.",
			order.Summary(), strings.Join(missing, ", ")), nil
	}
	return fmt.Sprintf("Your order: %s. Shall I put that through?", order.Summary()), nil
}

func (a *Agent) saveOrder(ctx *agent.Context, args agent.Args) (string, error) {
	confirmed, err := args.Bool("confirmed")
	if err != nil {
		return "", err
	}
	if !confirmed {
		return "", fmt.Errorf("barista: order is not confirmed yet")
	}

	a.mu.Lock()
	order := a.order
	a.mu.Unlock()
	if missing := order.MissingFields(); len(missing) > 0 {
		return "", fmt.Errorf("barista: order is incomplete, missing %s",
			strings.Join(missing, ", "))
	}
	if order.Extras == nil {
		order.Extras = []string{}
	}

	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("barista: encode order: %w", err)
	}
	ref := store.OrderFile(ctx.Now(), order.Name)
	meta := store.Metadata{
		AgentID:   ID,
		Version:   Version,
		SessionID: ctx.SessionID,
	}
	if err := ctx.Store.WriteJSON(ref, body, meta); err != nil {
		return "", fmt.Errorf("barista: save order: %w", err)
	}
	ctx.Note("order saved to " + ref.Path(ctx.Config))

	a.mu.Lock()
	a.order = CoffeeOrder{}
	a.mu.Unlock()
	return fmt.Sprintf("Order in! A %s coming right up.", order.Summary()), nil
}
