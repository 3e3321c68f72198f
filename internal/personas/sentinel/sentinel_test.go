package sentinel

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
	fixed := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	st := store.New(cfg, store.WithClock(func() time.Time { return fixed }))
	return agent.NewContext(cfg, st, nil, "sess-3").
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

func mustFail(t *testing.T, a *Agent, name string, args agent.Args, ctx *agent.Context) error {
	t.Helper()
	tool, ok := agent.FindTool(a, name)
	if !ok {
		t.Fatalf("no tool %s", name)
	}
	_, err := tool.Handler(ctx, args)
	if err == nil {
		t.Fatalf("%s: expected error", name)
	}
	return err
}

func TestLookupSeedsDatabaseAndAsksQuestion(t *testing.T) {
	ctx := newTestContext(t)
	a := New()

	reply := call(t, a, "lookup_case", agent.Args{"user_name": "jordan reyes"}, ctx)
	if !strings.Contains(reply, "first pet") {
		t.Fatalf("reply %q should ask the security question", reply)
	}

	var cases []Case
	if err := ctx.Store.LoadCollection(store.FraudCases, &cases); err != nil {
		t.Fatalf("load cases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("seeded %d cases, want 2", len(cases))
	}
}

func TestCaseDetailsGatedOnVerification(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "lookup_case", agent.Args{"user_name": "Jordan Reyes"}, ctx)

	mustFail(t, a, "case_status", agent.Args{}, ctx)
	mustFail(t, a, "resolve_transaction", agent.Args{"outcome": "safe"}, ctx)

	call(t, a, "verify_identity", agent.Args{"answer": "Biscuit"}, ctx)
	if !a.Verified() {
		t.Fatal("case-insensitive answer should verify")
	}

	status := call(t, a, "case_status", agent.Args{}, ctx)
	if !strings.Contains(status, "NovaTech Gadgets") || !strings.Contains(status, "4417") {
		t.Fatalf("status %q missing transaction details", status)
	}
}

func TestVerificationAttemptsAreBounded(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "lookup_case", agent.Args{"user_name": "Jordan Reyes"}, ctx)

	call(t, a, "verify_identity", agent.Args{"answer": "rex"}, ctx)
	call(t, a, "verify_identity", agent.Args{"answer": "whiskers"}, ctx)
	mustFail(t, a, "verify_identity", agent.Args{"answer": "fido"}, ctx)
	mustFail(t, a, "verify_identity", agent.Args{"answer": "biscuit"}, ctx)
	if a.Verified() {
		t.Fatal("caller should not verify after attempts are exhausted")
	}
}

func TestResolveTransactionPersistsOutcome(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "lookup_case", agent.Args{"user_name": "Amara Okafor"}, ctx)
	call(t, a, "verify_identity", agent.Args{"answer": "Enugu"}, ctx)

	reply := call(t, a, "resolve_transaction",
		agent.Args{"outcome": "fraud", "note": "caller did not recognize the merchant"}, ctx)
	if !strings.Contains(reply, "fraud") {
		t.Fatalf("unexpected reply %q", reply)
	}

	var cases []Case
	if err := ctx.Store.LoadCollection(store.FraudCases, &cases); err != nil {
		t.Fatalf("load cases: %v", err)
	}
	var found *Case
	for i := range cases {
		if cases[i].SecurityIdentifier == "AO-2087" {
			found = &cases[i]
		}
	}
	if found == nil {
		t.Fatal("case AO-2087 missing after resolution")
	}
	if found.Status != StatusConfirmedFraud {
		t.Fatalf("status = %s, want %s", found.Status, StatusConfirmedFraud)
	}
	if found.OutcomeNote != "caller did not recognize the merchant" {
		t.Fatalf("outcome note = %q", found.OutcomeNote)
	}

	// The resolved case is no longer pending, so it cannot be looked up again.
	mustFail(t, a, "lookup_case", agent.Args{"user_name": "Amara Okafor"}, ctx)
}

func TestResolveRejectsUnknownOutcome(t *testing.T) {
	ctx := newTestContext(t)
	a := New()
	call(t, a, "lookup_case", agent.Args{"user_name": "Jordan Reyes"}, ctx)
	call(t, a, "verify_identity", agent.Args{"answer": "biscuit"}, ctx)
	mustFail(t, a, "resolve_transaction", agent.Args{"outcome": "maybe"}, ctx)
}
