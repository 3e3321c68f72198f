// Package intent maps final user utterances to persona tool calls with
// keyword rules. It stands in for the language model stage when running
// offline, so sessions stay fully testable without provider keys.
package intent

import (
	"regexp"
	"strings"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/personas/barista"
	"github.com/mkerring/talkshop/internal/personas/grocer"
	"github.com/mkerring/talkshop/internal/personas/sentinel"
	"github.com/mkerring/talkshop/internal/personas/tutor"
	"github.com/mkerring/talkshop/internal/personas/wellness"
	"github.com/mkerring/talkshop/internal/session"
)

// Matcher implements session.Planner with per-persona keyword rules.
type Matcher struct{}

// New returns a keyword matcher.
func New() Matcher {
	return Matcher{}
}

// Plan inspects the utterance and returns the tool calls it implies. When
// nothing matches it returns a clarifying reply instead.
func (m Matcher) Plan(a agent.Agent, utterance string) ([]session.ToolCall, string) {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	var calls []session.ToolCall
	switch a.Info().ID {
	case barista.ID:
		calls = planBarista(lower, utterance)
	case grocer.ID:
		calls = planGrocer(lower)
	case sentinel.ID:
		calls = planSentinel(a, lower, utterance)
	case wellness.ID:
		calls = planWellness(lower)
	case tutor.ID:
		calls = planTutor(lower)
	}
	if len(calls) == 0 {
		return nil, "Could you say that another way?"
	}
	return calls, ""
}

var (
	drinkWords = []string{"latte", "cappuccino", "mocha", "espresso", "americano", "flat white", "cold brew", "hot chocolate", "tea"}
	milkWords  = []string{"oat", "almond", "soy", "whole", "skim", "coconut"}
	extraWords = []string{"extra shot", "caramel", "vanilla", "whipped cream", "honey", "cinnamon"}

	namePattern      = regexp.MustCompile(`(?i)(?:my name is|name's|it's for|for)\s+([A-Z][a-zA-Z]+)`)
	quantityPattern  = regexp.MustCompile(`(?i)\b(\d+|a|an|one|two|three|four|five)\s+([a-z ]+?)(?:\s+please|[.,!?]|$)`)
	dishPattern      = regexp.MustCompile(`(?i)(?:everything for|ingredients for|i'?m making|to make)\s+(.+?)(?:[.,!?]|$)`)
	callerPattern    = regexp.MustCompile(`(?i)(?:this is|speaking, it's|you've reached)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
	feelPattern      = regexp.MustCompile(`(?i)(?:i feel|i'?m feeling|feeling)\s+([a-z]+)`)
	energyPattern    = regexp.MustCompile(`(?i)energy(?:'s| is)?\s+(?:pretty\s+)?([a-z]+)`)
	objectivePattern = regexp.MustCompile(`(?i)(?:my goals are|i want to|today i will|objectives?:?)\s+(.+)`)
	topicPattern     = regexp.MustCompile(`(?i)(?:got|answered|tried)\s+(?:the\s+)?([a-z ]+?)\s+(?:one|question|problem)?\s*(right|wrong|correct|incorrect)`)
	resetPattern     = regexp.MustCompile(`(?i)reset\s+([a-z ]+?)(?:[.,!?]|$)`)
)

func planBarista(lower, original string) []session.ToolCall {
	var calls []session.ToolCall
	for _, drink := range drinkWords {
		if strings.Contains(lower, drink) {
			calls = append(calls, session.ToolCall{
				Name: "update_drink_type", Args: agent.Args{"drink_type": drink},
			})
			break
		}
	}
	for _, size := range []string{"small", "medium", "large"} {
		if strings.Contains(lower, size) {
			calls = append(calls, session.ToolCall{
				Name: "update_size", Args: agent.Args{"size": size},
			})
			break
		}
	}
	for _, milk := range milkWords {
		if strings.Contains(lower, "milk") && strings.Contains(lower, milk) {
			calls = append(calls, session.ToolCall{
				Name: "update_milk", Args: agent.Args{"milk": milk},
			})
			break
		}
	}
	for _, extra := range extraWords {
		if strings.Contains(lower, extra) {
			calls = append(calls, session.ToolCall{
				Name: "add_extra", Args: agent.Args{"extra": extra},
			})
		}
	}
	if match := namePattern.FindStringSubmatch(original); match != nil {
		calls = append(calls, session.ToolCall{
			Name: "update_name", Args: agent.Args{"name": match[1]},
		})
	}
	if containsAny(lower, "read it back", "so far", "status", "what do you have") {
		calls = append(calls, session.ToolCall{Name: "check_order_status", Args: agent.Args{}})
	}
	if containsAny(lower, "that's right", "confirm", "place it", "save it", "yes please", "sounds good") {
		calls = append(calls, session.ToolCall{
			Name: "save_order", Args: agent.Args{"confirmed": true},
		})
	}
	return calls
}

func planGrocer(lower string) []session.ToolCall {
	var calls []session.ToolCall
	switch {
	case containsAny(lower, "what do you have", "what's in stock", "catalog", "what do you sell"):
		calls = append(calls, session.ToolCall{Name: "list_catalog", Args: agent.Args{}})
	case dishPattern.MatchString(lower):
		match := dishPattern.FindStringSubmatch(lower)
		calls = append(calls, session.ToolCall{
			Name: "add_ingredients_for_dish", Args: agent.Args{"dish": strings.TrimSpace(match[1])},
		})
	case strings.HasPrefix(lower, "remove "):
		item := strings.TrimSuffix(strings.TrimPrefix(lower, "remove "), ".")
		item = strings.TrimPrefix(item, "the ")
		calls = append(calls, session.ToolCall{
			Name: "remove_from_cart", Args: agent.Args{"item": strings.TrimSpace(item)},
		})
	case containsAny(lower, "what's in my cart", "show the cart", "show my cart", "running total"):
		calls = append(calls, session.ToolCall{Name: "show_cart", Args: agent.Args{}})
	case containsAny(lower, "place the order", "that's everything", "check out", "checkout"):
		calls = append(calls, session.ToolCall{Name: "place_order", Args: agent.Args{}})
	case containsAny(lower, "past orders", "order history", "ordered before"):
		calls = append(calls, session.ToolCall{Name: "list_past_orders", Args: agent.Args{}})
	case containsAny(lower, "add ", "i need ", "i'd like "):
		if match := quantityPattern.FindStringSubmatch(lower); match != nil {
			item := strings.TrimSpace(match[2])
			item = strings.TrimPrefix(item, "of ")
			calls = append(calls, session.ToolCall{
				Name: "add_to_cart",
				Args: agent.Args{"item": item, "quantity": quantityValue(match[1])},
			})
		}
	}
	return calls
}

func planSentinel(a agent.Agent, lower, original string) []session.ToolCall {
	if match := callerPattern.FindStringSubmatch(original); match != nil {
		return []session.ToolCall{{
			Name: "lookup_case", Args: agent.Args{"user_name": match[1]},
		}}
	}
	switch {
	case containsAny(lower, "not mine", "don't recognize", "never made", "that's fraud", "block the card"):
		return []session.ToolCall{{
			Name: "resolve_transaction",
			Args: agent.Args{"outcome": "fraud", "note": original},
		}}
	case containsAny(lower, "that was me", "i recognize", "i made that", "it's fine", "legitimate"):
		return []session.ToolCall{{
			Name: "resolve_transaction",
			Args: agent.Args{"outcome": "safe", "note": original},
		}}
	case containsAny(lower, "what charge", "which transaction", "tell me about", "the details"):
		return []session.ToolCall{{Name: "case_status", Args: agent.Args{}}}
	}
	// With a case open and identity unverified, treat a short utterance
	// as the security answer.
	if s, ok := a.(*sentinel.Agent); ok && !s.Verified() {
		if answer := strings.Trim(lower, " .!?"); answer != "" && len(strings.Fields(answer)) <= 4 {
			return []session.ToolCall{{
				Name: "verify_identity", Args: agent.Args{"answer": answer},
			}}
		}
	}
	return nil
}

func planWellness(lower string) []session.ToolCall {
	var calls []session.ToolCall
	if match := feelPattern.FindStringSubmatch(lower); match != nil {
		calls = append(calls, session.ToolCall{
			Name: "record_mood", Args: agent.Args{"mood": match[1]},
		})
	}
	if match := energyPattern.FindStringSubmatch(lower); match != nil {
		calls = append(calls, session.ToolCall{
			Name: "record_energy", Args: agent.Args{"energy": match[1]},
		})
	}
	if match := objectivePattern.FindStringSubmatch(lower); match != nil {
		calls = append(calls, session.ToolCall{
			Name: "set_objectives", Args: agent.Args{"objectives": strings.TrimSuffix(match[1], ".")},
		})
	}
	switch {
	case strings.HasPrefix(lower, "note that "):
		calls = append(calls, session.ToolCall{
			Name: "add_note",
			Args: agent.Args{"note": strings.TrimSuffix(strings.TrimPrefix(lower, "note that "), ".")},
		})
	case strings.Contains(lower, "streak"):
		calls = append(calls, session.ToolCall{Name: "checkin_streak", Args: agent.Args{}})
	case strings.HasPrefix(lower, "also "):
		calls = append(calls, session.ToolCall{
			Name: "add_objective",
			Args: agent.Args{"objective": strings.TrimSuffix(strings.TrimPrefix(lower, "also "), ".")},
		})
	case strings.Contains(lower, "yesterday"):
		calls = append(calls, session.ToolCall{Name: "recall_yesterday", Args: agent.Args{}})
	case containsAny(lower, "save", "that's it for today", "log it"):
		calls = append(calls, session.ToolCall{Name: "save_checkin", Args: agent.Args{}})
	}
	return calls
}

func planTutor(lower string) []session.ToolCall {
	if match := topicPattern.FindStringSubmatch(lower); match != nil {
		correct := match[2] == "right" || match[2] == "correct"
		return []session.ToolCall{{
			Name: "record_attempt",
			Args: agent.Args{"topic": strings.TrimSpace(match[1]), "correct": correct},
		}}
	}
	if match := resetPattern.FindStringSubmatch(lower); match != nil {
		return []session.ToolCall{{
			Name: "reset_topic", Args: agent.Args{"topic": strings.TrimSpace(match[1])},
		}}
	}
	switch {
	case containsAny(lower, "what next", "what should i study", "where should i focus"):
		return []session.ToolCall{{Name: "next_topic", Args: agent.Args{}}}
	case containsAny(lower, "how am i doing", "mastery report", "my progress"):
		return []session.ToolCall{{Name: "mastery_report", Args: agent.Args{}}}
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func quantityValue(raw string) int {
	switch strings.ToLower(raw) {
	case "a", "an", "one":
		return 1
	case "two":
		return 2
	case "three":
		return 3
	case "four":
		return 4
	case "five":
		return 5
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	return n
}
