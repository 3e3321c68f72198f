// Package sentinel implements the fraud review persona. It calls customers
// about flagged transactions, verifies identity with a security question,
// and records the outcome on the case.
package sentinel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/store"
)

const (
	ID      = "sentinel"
	Version = "1.0.0"

	maxVerifyAttempts = 3

	StatusPendingReview  = "pending_review"
	StatusConfirmedSafe  = "confirmed_safe"
	StatusConfirmedFraud = "confirmed_fraud"
)

// Case is one flagged transaction in data/fraud_cases.json.
type Case struct {
	UserName            string `json:"userName"`
	SecurityIdentifier  string `json:"securityIdentifier"`
	CardEnding          string `json:"cardEnding"`
	TransactionName     string `json:"transactionName"`
	TransactionAmount   string `json:"transactionAmount"`
	TransactionTime     string `json:"transactionTime"`
	TransactionLocation string `json:"transactionLocation"`
	TransactionSource   string `json:"transactionSource"`
	SecurityQuestion    string `json:"securityQuestion"`
	SecurityAnswer      string `json:"securityAnswer"`
	Status              string `json:"status"`
	OutcomeNote         string `json:"outcome_note,omitempty"`
}

// seedCases is written to data/fraud_cases.json when no case database
// exists yet, so the persona has something to call about.
var seedCases = []Case{
	{
		UserName:            "Jordan Reyes",
		SecurityIdentifier:  "JR-4410",
		CardEnding:          "4417",
		TransactionName:     "NovaTech Gadgets",
		TransactionAmount:   "$742.19",
		TransactionTime:     "2026-02-27T23:41:00Z",
		TransactionLocation: "Lisbon, Portugal",
		TransactionSource:   "online",
		SecurityQuestion:    "What is the name of your first pet?",
		SecurityAnswer:      "biscuit",
		Status:              StatusPendingReview,
	},
	{
		UserName:            "Amara Okafor",
		SecurityIdentifier:  "AO-2087",
		CardEnding:          "9902",
		TransactionName:     "Skyline Jewelers",
		TransactionAmount:   "$1,250.00",
		TransactionTime:     "2026-02-28T03:05:00Z",
		TransactionLocation: "Dubai, UAE",
		TransactionSource:   "card_present",
		SecurityQuestion:    "What city were you born in?",
		SecurityAnswer:      "enugu",
		Status:              StatusPendingReview,
	},
}

// Agent is the fraud review persona. Identity verification gates the
// resolution tools.
type Agent struct {
	mu       sync.Mutex
	active   *Case
	verified bool
	attempts int
}

// New returns a sentinel with no active case.
func New() *Agent {
	return &Agent{}
}

func (a *Agent) Info() agent.Info {
	return agent.Info{
		ID:          ID,
		Name:        "Sam",
		Description: "Reviews flagged card transactions with the cardholder.",
		Version:     Version,
		Greeting: "Hello, this is Sam calling from the card security team about " +
			"recent activity on your account. Am I speaking with the cardholder?",
		Instructions: "You are a calm fraud review specialist. Look the caller's case " +
			"up by name, verify identity with the security question before revealing " +
			"transaction details, then mark the charge safe or fraudulent.",
	}
}

func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = nil
	a.verified = false
	a.attempts = 0
}

// Verified reports whether the current caller passed identity checks.
func (a *Agent) Verified() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verified
}

func (a *Agent) Tools() []agent.Tool {
	return []agent.Tool{
		{
			Name:        "lookup_case",
			Description: "Find the pending case for a cardholder by name.",
			Params: []agent.Param{
				{Name: "user_name", Type: agent.ParamString, Required: true},
			},
			Handler: a.lookupCase,
		},
		{
			Name:        "verify_identity",
			Description: "Check the caller's answer to the security question.",
			Params: []agent.Param{
				{Name: "answer", Type: agent.ParamString, Required: true},
			},
			Handler: a.verifyIdentity,
		},
		{
			Name:        "case_status",
			Description: "Describe the flagged transaction. Requires verification.",
			Handler:     a.caseStatus,
		},
		{
			Name:        "resolve_transaction",
			Description: "Mark the charge safe or fraud. Requires verification.",
			Params: []agent.Param{
				{Name: "outcome", Type: agent.ParamString, Required: true},
				{Name: "note", Type: agent.ParamString},
			},
			Handler: a.resolveTransaction,
		},
	}
}

// loadCases reads the case database, seeding it on first use.
func loadCases(ctx *agent.Context) ([]Case, error) {
	var cases []Case
	if err := ctx.Store.LoadCollection(store.FraudCases, &cases); err != nil {
		return nil, fmt.Errorf("sentinel: load cases: %w", err)
	}
	if len(cases) > 0 {
		return cases, nil
	}
	if err := ctx.Store.ReplaceCollection(store.FraudCases, seedCases); err != nil {
		return nil, fmt.Errorf("sentinel: seed cases: %w", err)
	}
	return append([]Case(nil), seedCases...), nil
}

func saveCases(ctx *agent.Context, cases []Case) error {
	if err := ctx.Store.ReplaceCollection(store.FraudCases, cases); err != nil {
		return fmt.Errorf("sentinel: save cases: %w", err)
	}
	return nil
}

func (a *Agent) lookupCase(ctx *agent.Context, args agent.Args) (string, error) {
	name, err := args.String("user_name")
	if err != nil {
		return "", err
	}
	cases, err := loadCases(ctx)
	if err != nil {
		return "", err
	}
	for i := range cases {
		if strings.EqualFold(cases[i].UserName, name) && cases[i].Status == StatusPendingReview {
			a.mu.Lock()
			c := cases[i]
			a.active = &c
			a.verified = false
			a.attempts = 0
			a.mu.Unlock()
			return fmt.Sprintf("Thanks. Before I share anything, I need to verify you: %s",
				c.SecurityQuestion), nil
		}
	}
	return "", fmt.Errorf("sentinel: no pending case for %q", name)
}

func (a *Agent) verifyIdentity(ctx *agent.Context, args agent.Args) (string, error) {
	answer, err := args.String("answer")
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return "", fmt.Errorf("sentinel: no case is open, look the caller up first")
	}
	if a.verified {
		return "You're already verified.", nil
	}
	if a.attempts >= maxVerifyAttempts {
		return "", fmt.Errorf("sentinel: verification attempts exhausted for this call")
	}
	a.attempts++
	if !strings.EqualFold(strings.TrimSpace(answer), a.active.SecurityAnswer) {
		remaining := maxVerifyAttempts - a.attempts
		if remaining == 0 {
			return "", fmt.Errorf("sentinel: verification failed, please call the number on your card")
		}
		return fmt.Sprintf("That doesn't match what we have on file. %d attempts left.",
			remaining), nil
	}
	a.verified = true
	ctx.Note("caller verified for case " + a.active.SecurityIdentifier)
	return "Thank you, you're verified. Let me pull up the charge.", nil
}

func (a *Agent) caseStatus(ctx *agent.Context, args agent.Args) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return "", fmt.Errorf("sentinel: no case is open")
	}
	if !a.verified {
		return "", fmt.Errorf("sentinel: identity not verified yet")
	}
	c := a.active
	return fmt.Sprintf("We flagged a %s charge of %s at %s in %s on the card ending %s, made %s. Does that sound familiar?",
		c.TransactionSource, c.TransactionAmount, c.TransactionName,
		c.TransactionLocation, c.CardEnding, c.TransactionTime), nil
}

func (a *Agent) resolveTransaction(ctx *agent.Context, args agent.Args) (string, error) {
	outcome, err := args.String("outcome")
	if err != nil {
		return "", err
	}
	note := args.StringOr("note", "")

	var status string
	switch strings.ToLower(outcome) {
	case "safe":
		status = StatusConfirmedSafe
	case "fraud":
		status = StatusConfirmedFraud
	default:
		return "", fmt.Errorf("sentinel: outcome must be safe or fraud, not %q", outcome)
	}

	a.mu.Lock()
	if a.active == nil {
		a.mu.Unlock()
		return "", fmt.Errorf("sentinel: no case is open")
	}
	if !a.verified {
		a.mu.Unlock()
		return "", fmt.Errorf("sentinel: identity not verified yet")
	}
	identifier := a.active.SecurityIdentifier
	a.mu.Unlock()

	cases, err := loadCases(ctx)
	if err != nil {
		return "", err
	}
	updated := false
	for i := range cases {
		if cases[i].SecurityIdentifier == identifier {
			cases[i].Status = status
			cases[i].OutcomeNote = note
			updated = true
			break
		}
	}
	if !updated {
		return "", fmt.Errorf("sentinel: case %s vanished from the database", identifier)
	}
	if err := saveCases(ctx, cases); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.active = nil
	a.verified = false
	a.attempts = 0
	a.mu.Unlock()

	if status == StatusConfirmedFraud {
		return "Understood. I've blocked that card and flagged the charge as fraud. A replacement card is on its way.", nil
	}
	return "Great, I've marked the charge as recognized. Sorry for the trouble and thanks for your time.", nil
}
