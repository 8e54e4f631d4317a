package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/voxlane/callpilot/backend/internal/model/conversation"
	"github.com/voxlane/callpilot/backend/internal/service/session"
)

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	turns, err := store.History(ctx, "never-seen")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(turns))
	}
}

func TestAppendTurnOrder(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, "s1", conversation.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}
	if _, err := store.AppendTurn(ctx, "s1", conversation.RoleAssistant, "hi there"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	turns, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != conversation.RoleUser || turns[0].Content != "hello" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != conversation.RoleAssistant || turns[1].Content != "hi there" {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, "s1", conversation.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	turns, _ := store.History(ctx, "s1")
	turns[0].Content = "mutated"

	again, _ := store.History(ctx, "s1")
	if again[0].Content != "hello" {
		t.Fatal("History must return a copy of stored turns")
	}
}

func TestClear(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	if _, err := store.AppendTurn(ctx, "s1", conversation.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}

	turns, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(turns))
	}

	// Clearing an unknown session must be a silent no-op.
	if err := store.Clear(ctx, "never-seen"); err != nil {
		t.Fatalf("Clear unknown err: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	store.AppendTurn(ctx, "a", conversation.RoleUser, "one")
	store.AppendTurn(ctx, "b", conversation.RoleUser, "two")
	store.Clear(ctx, "a")

	turns, _ := store.History(ctx, "b")
	if len(turns) != 1 || turns[0].Content != "two" {
		t.Fatalf("session b affected by clearing a: %+v", turns)
	}
}

func TestIdleEviction(t *testing.T) {
	store := session.NewMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	store.AppendTurn(ctx, "s1", conversation.RoleUser, "hello")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		turns, _ := store.History(ctx, "s1")
		if len(turns) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("idle session was never evicted")
}
