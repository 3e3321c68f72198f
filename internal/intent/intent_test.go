package intent

import (
	"testing"

	"github.com/mkerring/talkshop/internal/personas/barista"
	"github.com/mkerring/talkshop/internal/personas/grocer"
	"github.com/mkerring/talkshop/internal/personas/sentinel"
	"github.com/mkerring/talkshop/internal/personas/tutor"
	"github.com/mkerring/talkshop/internal/personas/wellness"
	"github.com/mkerring/talkshop/internal/session"
)

func names(calls []session.ToolCall) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, call.Name)
	}
	return out
}

func hasCall(calls []session.ToolCall, name string) bool {
	for _, call := range calls {
		if call.Name == name {
			return true
		}
	}
	return false
}

func TestPlanBaristaFullOrderUtterance(t *testing.T) {
	m := New()
	calls, reply := m.Plan(barista.New(), "Can I get a medium latte with oat milk, my name is Priya")
	if reply != "" {
		t.Fatalf("unexpected fallback reply %q", reply)
	}
	for _, want := range []string{"update_drink_type", "update_size", "update_milk", "update_name"} {
		if !hasCall(calls, want) {
			t.Fatalf("calls %v missing %s", names(calls), want)
		}
	}
}

func TestPlanBaristaMilkNeedsMilkMention(t *testing.T) {
	m := New()
	// "oat" alone is not a milk preference until the caller says milk.
	calls, _ := m.Plan(barista.New(), "A large oat cold brew for Raj")
	if hasCall(calls, "update_milk") {
		t.Fatalf("calls %v should not set milk", names(calls))
	}
	calls, _ = m.Plan(barista.New(), "Make it oat milk")
	if !hasCall(calls, "update_milk") {
		t.Fatalf("calls %v missing update_milk", names(calls))
	}
}

func TestPlanBaristaConfirmation(t *testing.T) {
	m := New()
	calls, _ := m.Plan(barista.New(), "Yes please, that's right")
	if !hasCall(calls, "save_order") {
		t.Fatalf("calls %v should save the order", names(calls))
	}
	if got := calls[len(calls)-1].Args["confirmed"]; got != true {
		t.Fatalf("confirmed arg = %v", got)
	}
}

func TestPlanGrocerDish(t *testing.T) {
	m := New()
	calls, _ := m.Plan(grocer.New(), "I'm making pancakes tonight")
	if len(calls) != 1 || calls[0].Name != "add_ingredients_for_dish" {
		t.Fatalf("calls = %v", names(calls))
	}
	if calls[0].Args["dish"] != "pancakes tonight" && calls[0].Args["dish"] != "pancakes" {
		t.Fatalf("dish arg = %v", calls[0].Args["dish"])
	}
}

func TestPlanGrocerAddWithQuantity(t *testing.T) {
	m := New()
	calls, _ := m.Plan(grocer.New(), "add two eggs please")
	if len(calls) != 1 || calls[0].Name != "add_to_cart" {
		t.Fatalf("calls = %v", names(calls))
	}
	if calls[0].Args["quantity"] != 2 {
		t.Fatalf("quantity = %v", calls[0].Args["quantity"])
	}
	if calls[0].Args["item"] != "eggs" {
		t.Fatalf("item = %v", calls[0].Args["item"])
	}
}

func TestPlanSentinelNameThenAnswer(t *testing.T) {
	m := New()
	a := sentinel.New()

	calls, _ := m.Plan(a, "Hi, this is Jordan Reyes")
	if len(calls) != 1 || calls[0].Name != "lookup_case" {
		t.Fatalf("calls = %v", names(calls))
	}
	if calls[0].Args["user_name"] != "Jordan Reyes" {
		t.Fatalf("user_name = %v", calls[0].Args["user_name"])
	}

	// Unverified caller saying something short is treated as the answer.
	calls, _ = m.Plan(a, "Biscuit")
	if len(calls) != 1 || calls[0].Name != "verify_identity" {
		t.Fatalf("calls = %v", names(calls))
	}
}

func TestPlanSentinelResolution(t *testing.T) {
	m := New()
	calls, _ := m.Plan(sentinel.New(), "That's not mine, block the card")
	if len(calls) != 1 || calls[0].Name != "resolve_transaction" {
		t.Fatalf("calls = %v", names(calls))
	}
	if calls[0].Args["outcome"] != "fraud" {
		t.Fatalf("outcome = %v", calls[0].Args["outcome"])
	}
}

func TestPlanWellnessMoodAndObjectives(t *testing.T) {
	m := New()
	calls, _ := m.Plan(wellness.New(), "I'm feeling focused and today I will finish the draft, go for a run")
	if !hasCall(calls, "record_mood") || !hasCall(calls, "set_objectives") {
		t.Fatalf("calls = %v", names(calls))
	}
}

func TestPlanWellnessEnergyAndStreak(t *testing.T) {
	m := New()
	calls, _ := m.Plan(wellness.New(), "Energy is pretty low today")
	if !hasCall(calls, "record_energy") {
		t.Fatalf("calls = %v", names(calls))
	}
	for _, call := range calls {
		if call.Name == "record_energy" && call.Args["energy"] != "low" {
			t.Fatalf("energy = %v", call.Args["energy"])
		}
	}

	calls, _ = m.Plan(wellness.New(), "How's my streak looking?")
	if !hasCall(calls, "checkin_streak") {
		t.Fatalf("calls = %v", names(calls))
	}
}

func TestPlanTutorAttempt(t *testing.T) {
	m := New()
	calls, _ := m.Plan(tutor.New(), "I got the fractions one right")
	if len(calls) != 1 || calls[0].Name != "record_attempt" {
		t.Fatalf("calls = %v", names(calls))
	}
	if calls[0].Args["correct"] != true {
		t.Fatalf("correct = %v", calls[0].Args["correct"])
	}
	if calls[0].Args["topic"] != "fractions" {
		t.Fatalf("topic = %v", calls[0].Args["topic"])
	}
}

func TestPlanFallbackReply(t *testing.T) {
	m := New()
	calls, reply := m.Plan(tutor.New(), "zzzzz qqqq")
	if len(calls) != 0 {
		t.Fatalf("expected no calls, got %v", names(calls))
	}
	if reply == "" {
		t.Fatal("expected a clarifying reply")
	}
}
