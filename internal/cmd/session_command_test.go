package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

func sessionEnv() *cliEnv {
	env := newCLIEnv()
	env.env["WEBCLAW_GATEWAY_TOKEN"] = "tok"
	env.gateway.ListSessionsFunc = func(ctx context.Context) ([]gateway.Session, error) {
		return []gateway.Session{
			{Key: "a", Title: "Alpha"},
			{Key: "b", DerivedTitle: "Bravo"},
			{Key: "c", FriendlyID: "c-1"},
		}, nil
	}
	return env
}

func TestSessionListPinnedFirst(t *testing.T) {
	env := sessionEnv()
	if err := env.store.Pin(context.Background(), "c"); err != nil {
		t.Fatal(err)
	}

	var got sessionListResult
	env.run(t, "-o", "json", "session", "list").decode(t, &got)

	keys := make([]string, 0, len(got.Sessions))
	for _, s := range got.Sessions {
		keys = append(keys, s.Key)
	}
	if strings.Join(keys, ",") != "c,a,b" {
		t.Fatalf("expected pinned session first, got %v", keys)
	}
	if !got.Sessions[0].Pinned || got.Sessions[1].Pinned {
		t.Errorf("unexpected pin flags %+v", got.Sessions)
	}
	if got.Sessions[2].Title != "Bravo" {
		t.Errorf("expected derived title, got %q", got.Sessions[2].Title)
	}
}

func TestSessionListPaging(t *testing.T) {
	env := sessionEnv()

	var got sessionListResult
	env.run(t, "-o", "json", "session", "list", "--page", "2", "--limit", "2").decode(t, &got)

	if got.Total != 3 || got.Page != 2 || len(got.Sessions) != 1 || got.Sessions[0].Key != "c" {
		t.Fatalf("unexpected page %+v", got)
	}
}

func TestSessionListText(t *testing.T) {
	env := sessionEnv()

	run := env.run(t, "-o", "text", "session", "list")
	if run.err != nil {
		t.Fatalf("execute: %v", run.err)
	}
	if !strings.HasPrefix(run.stdout, "KEY") || !strings.Contains(run.stdout, "Alpha") {
		t.Errorf("unexpected table %q", run.stdout)
	}
}

func TestSessionPins(t *testing.T) {
	env := newCLIEnv()

	var state map[string]interface{}
	env.run(t, "-o", "json", "session", "pin", "main").decode(t, &state)
	if state["session"] != "main" || state["pinned"] != true {
		t.Fatalf("unexpected pin result %v", state)
	}

	env.run(t, "-o", "json", "-s", "other", "session", "toggle").decode(t, &state)
	if state["session"] != "other" || state["pinned"] != true {
		t.Fatalf("expected toggle to pin --session, got %v", state)
	}

	var pinned []string
	env.run(t, "-o", "json", "session", "pinned").decode(t, &pinned)
	if strings.Join(pinned, ",") != "main,other" {
		t.Fatalf("unexpected pinned %v", pinned)
	}

	env.run(t, "-o", "json", "session", "toggle", "main").decode(t, &state)
	if state["pinned"] != false {
		t.Fatalf("expected toggle to unpin, got %v", state)
	}
	env.run(t, "-o", "json", "session", "unpin", "other").decode(t, &state)

	ok, err := workbench.IsPinned(context.Background(), env.store, "other")
	if err != nil || ok {
		t.Fatalf("expected other unpinned, got %v (%v)", ok, err)
	}
}

func TestOrderSessionsSkipsNothing(t *testing.T) {
	rows := orderSessions([]gateway.Session{{Key: "x"}, {Key: "y"}}, []string{"y", "missing"})
	if len(rows) != 2 || rows[0].Key != "y" || rows[1].Key != "x" {
		t.Fatalf("unexpected order %+v", rows)
	}
}
