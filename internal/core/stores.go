package core

import (
	"context"

	"github.com/valter-silva-au/questforge/pkg/models"
)

// KeyValueStore is the durable string store the draft is persisted in.
// This interface is defined locally in core to avoid importing storage.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// QuestStore persists published quests.
// This interface is defined locally in core to avoid importing storage.
type QuestStore interface {
	AddQuest(quest models.Quest) error
	Save() error
}

// WalletSession is the connected-wallet collaborator used to pay for a quest.
// Implementations own their connection lifecycle; core never touches a
// package-level wallet.
type WalletSession interface {
	Connect(ctx context.Context) (string, error)
	Disconnect() error
	Connected() bool
	Address() string
	// Pay transfers amount from the connected wallet and returns a
	// transaction hash.
	Pay(ctx context.Context, amount float64, memo string) (string, error)
}
