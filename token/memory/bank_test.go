package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

func TestPullMovesValueIntoEscrow(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.Mint("usdc", "alice", types.NewAmount(1000))

	if err := b.Pull(ctx, "usdc", "alice", types.NewAmount(300)); err != nil {
		t.Fatal(err)
	}

	if got := b.Balance("usdc", "alice"); !got.Equal(types.NewAmount(700)) {
		t.Fatalf("balance = %s, want 700", got)
	}
	if got := b.Escrowed("usdc"); !got.Equal(types.NewAmount(300)) {
		t.Fatalf("escrow = %s, want 300", got)
	}
}

func TestPullInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.Mint("usdc", "alice", types.NewAmount(100))

	err := b.Pull(ctx, "usdc", "alice", types.NewAmount(101))
	if !errors.Is(err, token.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// A failed pull must not move anything.
	if got := b.Balance("usdc", "alice"); !got.Equal(types.NewAmount(100)) {
		t.Fatalf("balance = %s", got)
	}
	if got := b.Escrowed("usdc"); !got.IsZero() {
		t.Fatalf("escrow = %s", got)
	}

	// Unknown holders and assets count as zero balances.
	if err := b.Pull(ctx, "usdc", "nobody", types.NewAmount(1)); !errors.Is(err, token.ErrInsufficientFunds) {
		t.Fatalf("unknown holder: %v", err)
	}
	if err := b.Pull(ctx, "dai", "alice", types.NewAmount(1)); !errors.Is(err, token.ErrInsufficientFunds) {
		t.Fatalf("unknown asset: %v", err)
	}
}

func TestPushPaysOutOfEscrow(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.Mint("usdc", "alice", types.NewAmount(1000))
	if err := b.Pull(ctx, "usdc", "alice", types.NewAmount(1000)); err != nil {
		t.Fatal(err)
	}

	if err := b.Push(ctx, "usdc", "bob", types.NewAmount(400)); err != nil {
		t.Fatal(err)
	}
	if got := b.Balance("usdc", "bob"); !got.Equal(types.NewAmount(400)) {
		t.Fatalf("bob = %s, want 400", got)
	}
	if got := b.Escrowed("usdc"); !got.Equal(types.NewAmount(600)) {
		t.Fatalf("escrow = %s, want 600", got)
	}

	// Escrow cannot go negative.
	err := b.Push(ctx, "usdc", "bob", types.NewAmount(601))
	if !errors.Is(err, token.ErrTransferFailed) {
		t.Fatalf("err = %v, want ErrTransferFailed", err)
	}
	if got := b.Escrowed("usdc"); !got.Equal(types.NewAmount(600)) {
		t.Fatalf("escrow changed on failed push: %s", got)
	}
}

func TestAssetsAreIsolated(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.Mint("usdc", "alice", types.NewAmount(500))
	b.Mint("dai", "alice", types.NewAmount(700))

	if err := b.Pull(ctx, "usdc", "alice", types.NewAmount(500)); err != nil {
		t.Fatal(err)
	}

	if got := b.Balance("dai", "alice"); !got.Equal(types.NewAmount(700)) {
		t.Fatalf("dai balance = %s", got)
	}
	if got := b.Escrowed("dai"); !got.IsZero() {
		t.Fatalf("dai escrow = %s", got)
	}
}
