package integration

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/questforge/internal/core"
	"go.uber.org/goleak"
)

var _ core.WalletSession = (*SimulatedWallet)(nil)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSimulatedWallet_ConnectAndPay(t *testing.T) {
	w := NewSimulatedWallet("0xabc", 0, nil)
	if w.Connected() {
		t.Fatal("new wallet should start disconnected")
	}

	addr, err := w.Connect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "0xabc" || !w.Connected() {
		t.Fatalf("expected connected wallet 0xabc, got %q connected=%v", addr, w.Connected())
	}

	tx, err := w.Pay(context.Background(), 1500, "Study X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(tx, "0x") || len(tx) != 34 {
		t.Fatalf("unexpected tx hash %q", tx)
	}

	payments := w.Payments()
	if len(payments) != 1 || payments[0].Amount != 1500 || payments[0].Memo != "Study X" || payments[0].TxHash != tx {
		t.Fatalf("unexpected payments %+v", payments)
	}
}

func TestSimulatedWallet_PayRequiresConnection(t *testing.T) {
	w := NewSimulatedWallet("0xabc", 0, nil)

	_, err := w.Pay(context.Background(), 10, "")
	if !errors.Is(err, core.ErrWalletNotConnected) {
		t.Fatalf("expected ErrWalletNotConnected, got %v", err)
	}

	_, _ = w.Connect(context.Background())
	_ = w.Disconnect()
	if _, err := w.Pay(context.Background(), 10, ""); !errors.Is(err, core.ErrWalletNotConnected) {
		t.Fatalf("expected ErrWalletNotConnected after disconnect, got %v", err)
	}
}

func TestSimulatedWallet_PayRejectsBadAmounts(t *testing.T) {
	w := NewSimulatedWallet("0xabc", 0, nil)
	_, _ = w.Connect(context.Background())

	for _, amount := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := w.Pay(context.Background(), amount, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if len(w.Payments()) != 0 {
		t.Fatal("rejected payments must not be recorded")
	}
}

func TestSimulatedWallet_LatencyHonorsContext(t *testing.T) {
	w := NewSimulatedWallet("0xabc", time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := w.Connect(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("connect did not return promptly on cancellation")
	}
	if w.Connected() {
		t.Fatal("cancelled connect must leave the wallet disconnected")
	}
}

func TestSimulatedWallet_LatencyElapses(t *testing.T) {
	w := NewSimulatedWallet("0xabc", 10*time.Millisecond, nil)

	start := time.Now()
	if _, err := w.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("expected connect to take at least the latency, took %v", elapsed)
	}
}
