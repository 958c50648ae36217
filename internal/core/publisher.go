package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/questforge/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrNotAtPayment is returned when publishing is attempted before the
	// wizard reached the PAYMENT step.
	ErrNotAtPayment = errors.New("quest can only be published from the payment step")
	// ErrWalletNotConnected is returned by wallets asked to pay while
	// disconnected.
	ErrWalletNotConnected = errors.New("wallet not connected")
)

// QuestPublisher turns a completed wizard draft into a published quest.
type QuestPublisher interface {
	Publish(ctx context.Context, w *QuestWizard) (*models.Quest, error)
}

type questPublisher struct {
	idGen    QuestIDGenerator
	quests   QuestStore
	wallet   WalletSession
	notifier Notifier
	events   EventLogger
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*settlement
}

// settlement is the progress of one session's publish. It outlives a failed
// attempt so a retry resumes where the last one stopped.
type settlement struct {
	id     string
	amount float64
	tx     string
	quest  *models.Quest
}

// NewQuestPublisher wires the collaborators needed to publish a quest.
// notifier, events and logger may be nil.
func NewQuestPublisher(idGen QuestIDGenerator, quests QuestStore, wallet WalletSession, notifier Notifier, events EventLogger, logger *zap.Logger) QuestPublisher {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &questPublisher{
		idGen:    idGen,
		quests:   quests,
		wallet:   wallet,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		pending:  make(map[string]*settlement),
	}
}

// Publish re-checks every gate, reserves a quest ID, pays the budget from the
// wallet, records the quest and clears the draft. The draft survives any
// failure. A retry from the same wizard reuses the reserved ID and, once the
// wallet has paid, the payment: the wallet is charged at most once per quest
// unless the budget changed in between.
func (p *questPublisher) Publish(ctx context.Context, w *QuestWizard) (*models.Quest, error) {
	if w.CurrentStep() != models.StepPayment {
		return nil, ErrNotAtPayment
	}

	draft := w.Draft()
	if verr := w.Validators().ValidateAll(draft); verr != nil {
		p.notifier.Notify(Notification{Level: LevelError, Kind: KindValidation, Message: verr.Message})
		return nil, verr
	}
	budget := w.Validators().Budget(draft.Budget)

	s, err := p.settlementFor(w.SessionID(), budget)
	if err != nil {
		return nil, p.fail(KindPublish, "Publishing failed", err)
	}

	if s.tx == "" {
		if !p.wallet.Connected() {
			addr, err := p.wallet.Connect(ctx)
			if err != nil {
				return nil, p.fail(KindWallet, "Wallet connection failed", err)
			}
			p.logger.Info("wallet connected", zap.String("address", addr))
		}

		tx, err := p.wallet.Pay(ctx, budget, draft.Title)
		if err != nil {
			return nil, p.fail(KindWallet, "Payment failed", err)
		}
		s.tx = tx
	} else {
		p.logger.Info("reusing payment from earlier attempt",
			zap.String("quest_id", s.id), zap.String("payment_tx", s.tx))
	}

	if s.quest == nil {
		quest := p.buildQuest(s, draft)
		if err := p.quests.AddQuest(quest); err != nil {
			return nil, p.fail(KindPublish, "Publishing failed", err)
		}
		s.quest = &quest
	}
	if err := p.quests.Save(); err != nil {
		return nil, p.fail(KindPublish, "Publishing failed", err)
	}

	p.mu.Lock()
	delete(p.pending, w.SessionID())
	p.mu.Unlock()

	quest := *s.quest
	p.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Kind:    KindPublish,
		Message: fmt.Sprintf("Quest %s published.", quest.ID),
	})
	logEvent(p.events, "quest.published", map[string]any{
		"session_id": w.SessionID(),
		"quest_id":   quest.ID,
		"budget":     budget,
		"payment_tx": quest.PaymentTx,
	})

	if err := w.ClearDraft(); err != nil {
		// The quest is already recorded; a stale draft only costs a reload.
		p.logger.Warn("clearing draft after publish", zap.String("quest_id", quest.ID), zap.Error(err))
	}
	return &quest, nil
}

// settlementFor returns the session's unfinished settlement, or reserves a
// new quest ID when there is none or the budget no longer matches.
func (p *questPublisher) settlementFor(session string, budget float64) (*settlement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.pending[session]; ok {
		if s.amount == budget {
			return s, nil
		}
		if s.tx != "" {
			p.logger.Warn("budget changed after payment; paying again",
				zap.String("quest_id", s.id), zap.String("payment_tx", s.tx))
		}
	}

	id, err := p.idGen.GenerateQuestID()
	if err != nil {
		return nil, err
	}
	s := &settlement{id: id, amount: budget}
	p.pending[session] = s
	return s, nil
}

func (p *questPublisher) buildQuest(s *settlement, draft models.QuestDraft) models.Quest {
	quest := models.Quest{
		ID:                 s.id,
		Title:              strings.TrimSpace(draft.Title),
		Subject:            strings.TrimSpace(draft.Subject),
		Tags:               append([]string{}, draft.Tags...),
		Description:        draft.Description,
		Deliverables:       draft.Deliverables,
		AcceptanceCriteria: draft.AcceptanceCriteria,
		Budget:             s.amount,
		Deadline:           strings.TrimSpace(draft.Deadline),
		IPRights:           draft.IPRights,
		Backer:             p.wallet.Address(),
		PaymentTx:          s.tx,
		Published:          p.now(),
	}
	for _, a := range draft.Attachments {
		quest.Attachments = append(quest.Attachments, a.Name)
	}
	return quest
}

func (p *questPublisher) fail(kind NotificationKind, prefix string, err error) error {
	p.logger.Error(strings.ToLower(prefix), zap.Error(err))
	p.notifier.Notify(Notification{Level: LevelError, Kind: kind, Message: prefix + ": " + err.Error()})
	return fmt.Errorf("%s: %w", strings.ToLower(prefix), err)
}
