// Package integration holds adapters to the world outside the wizard. The
// only one today is the simulated wallet that pays quest budgets.
package integration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/questforge/internal/core"
	"go.uber.org/zap"
)

// ErrInvalidAmount is returned by Pay for amounts that are not positive and
// finite.
var ErrInvalidAmount = errors.New("payment amount must be a positive number")

// Payment records one completed simulated payment.
type Payment struct {
	TxHash string
	Amount float64
	Memo   string
	From   string
	At     time.Time
}

// SimulatedWallet stands in for a browser wallet. Connecting and paying each
// take a fixed latency and honor context cancellation; no funds move.
type SimulatedWallet struct {
	mu        sync.Mutex
	address   string
	latency   time.Duration
	connected bool
	payments  []Payment
	logger    *zap.Logger
}

// NewSimulatedWallet creates a disconnected wallet for address.
func NewSimulatedWallet(address string, latency time.Duration, logger *zap.Logger) *SimulatedWallet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedWallet{address: address, latency: latency, logger: logger}
}

// Connect waits out the latency and marks the wallet connected.
func (w *SimulatedWallet) Connect(ctx context.Context) (string, error) {
	if err := w.wait(ctx); err != nil {
		return "", fmt.Errorf("connecting wallet: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	w.logger.Debug("wallet connected", zap.String("address", w.address))
	return w.address, nil
}

// Disconnect marks the wallet disconnected. It never fails.
func (w *SimulatedWallet) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	return nil
}

func (w *SimulatedWallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *SimulatedWallet) Address() string {
	return w.address
}

// Pay simulates sending amount and returns a transaction hash.
func (w *SimulatedWallet) Pay(ctx context.Context, amount float64, memo string) (string, error) {
	if !w.Connected() {
		return "", core.ErrWalletNotConnected
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if err := w.wait(ctx); err != nil {
		return "", fmt.Errorf("sending payment: %w", err)
	}

	tx := "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	w.mu.Lock()
	w.payments = append(w.payments, Payment{
		TxHash: tx,
		Amount: amount,
		Memo:   memo,
		From:   w.address,
		At:     time.Now().UTC(),
	})
	w.mu.Unlock()

	w.logger.Info("payment sent", zap.String("tx", tx), zap.Float64("amount", amount))
	return tx, nil
}

// Payments returns a copy of every payment made in this session.
func (w *SimulatedWallet) Payments() []Payment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Payment(nil), w.payments...)
}

func (w *SimulatedWallet) wait(ctx context.Context) error {
	if w.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
