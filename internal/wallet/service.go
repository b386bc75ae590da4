package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"reseller/internal/notify"
	"reseller/internal/wallet/metrics"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/requestcontext"
)

var (
	// ErrInsufficientFunds is returned when a debit would overdraw the wallet.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrImmutable is returned by any attempt to change a posted transaction.
	ErrImmutable = sentinel.ErrImmutable
)

// Service posts ledger entries. All balance checks happen inside the store's
// per-wallet lock, so concurrent debits cannot both pass the check.
type Service struct {
	store     Store
	publisher notify.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("wallet store is required")
	}
	s := &Service{store: store, publisher: notify.Nop{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates a wallet for a partner.
func (s *Service) Open(ctx context.Context, partnerID id.PartnerID, currency string, lowBalance decimal.Decimal) (*Wallet, error) {
	if partnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "partner id is required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	w := &Wallet{
		ID:                  id.NewWalletID(),
		PartnerID:           partnerID,
		Currency:            currency,
		LowBalanceThreshold: lowBalance,
		CreatedAt:           requestcontext.Now(ctx),
	}
	if err := s.store.CreateWallet(ctx, w); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "partner already has a wallet")
		}
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

// ForPartner returns the partner's wallet.
func (s *Service) ForPartner(ctx context.Context, partnerID id.PartnerID) (*Wallet, error) {
	w, err := s.store.GetWalletByPartner(ctx, partnerID)
	if err != nil {
		return nil, translate(err, "wallet for partner "+partnerID.String())
	}
	return w, nil
}

func (s *Service) Balance(ctx context.Context, walletID id.WalletID) (decimal.Decimal, error) {
	b, err := s.store.Balance(ctx, walletID)
	if err != nil {
		return decimal.Zero, translate(err, "wallet "+walletID.String())
	}
	return b, nil
}

// History returns the newest transactions first.
func (s *Service) History(ctx context.Context, walletID id.WalletID, limit int) ([]*Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, walletID, limit)
	if err != nil {
		return nil, translate(err, "wallet "+walletID.String())
	}
	return txs, nil
}

func (s *Service) Credit(ctx context.Context, walletID id.WalletID, e Entry) (*Transaction, error) {
	if err := requirePositive(e.Amount); err != nil {
		return nil, err
	}
	return s.post(ctx, walletID, TypeCredit, e, nil)
}

func (s *Service) Refund(ctx context.Context, walletID id.WalletID, e Entry) (*Transaction, error) {
	if err := requirePositive(e.Amount); err != nil {
		return nil, err
	}
	return s.post(ctx, walletID, TypeRefund, e, nil)
}

// Adjust posts a signed correction. Adjustments are how mistakes are fixed,
// since posted rows never change.
func (s *Service) Adjust(ctx context.Context, walletID id.WalletID, e Entry) (*Transaction, error) {
	if e.Amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "adjustment amount must not be zero")
	}
	if err := requireCents(e.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Description) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "adjustment requires a description")
	}
	return s.post(ctx, walletID, TypeAdjustment, e, nil)
}

// Debit charges the wallet. Unless e.AllowNegative is set the debit fails with
// ErrInsufficientFunds when the balance is lower than the amount, and nothing
// is written.
func (s *Service) Debit(ctx context.Context, walletID id.WalletID, e Entry) (*Transaction, error) {
	if err := requirePositive(e.Amount); err != nil {
		return nil, err
	}
	var (
		w      *Wallet
		before decimal.Decimal
	)
	check := func(locked *Wallet, balance decimal.Decimal) error {
		w, before = locked, balance
		if !e.AllowNegative && balance.LessThan(e.Amount) {
			s.metrics.IncInsufficientFunds()
			return dErrors.Wrap(ErrInsufficientFunds, dErrors.CodeInsufficientFunds,
				fmt.Sprintf("balance %s is below debit %s", balance.StringFixed(2), e.Amount.StringFixed(2)))
		}
		return nil
	}
	t, err := s.post(ctx, walletID, TypeDebit, e, check)
	if err != nil {
		return nil, err
	}
	s.checkLowBalance(ctx, w, before, t.BalanceAfter)
	return t, nil
}

func (s *Service) post(ctx context.Context, walletID id.WalletID, typ TransactionType, e Entry, check func(*Wallet, decimal.Decimal) error) (*Transaction, error) {
	t, err := s.store.Append(ctx, walletID, func(w *Wallet, balance decimal.Decimal) (*Transaction, error) {
		if check != nil {
			if err := check(w, balance); err != nil {
				return nil, err
			}
		}
		return &Transaction{
			ID:            id.NewTransactionID(),
			WalletID:      w.ID,
			Type:          typ,
			Amount:        e.Amount,
			Description:   e.Description,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			CreatedAt:     requestcontext.Now(ctx),
		}, nil
	})
	if err != nil {
		s.metrics.IncPosting(string(typ), "rejected")
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, err
		}
		return nil, translate(err, "post "+string(typ))
	}
	s.metrics.IncPosting(string(typ), "posted")
	s.logger.InfoContext(ctx, "wallet transaction posted",
		"wallet_id", walletID.String(),
		"transaction_id", t.ID.String(),
		"type", string(typ),
		"amount", t.Amount.StringFixed(2),
		"balance_after", t.BalanceAfter.StringFixed(2),
		"reference_type", t.ReferenceType,
		"reference_id", t.ReferenceID,
	)
	return t, nil
}

// checkLowBalance notifies once when a debit crosses the wallet threshold.
func (s *Service) checkLowBalance(ctx context.Context, w *Wallet, before, after decimal.Decimal) {
	if w == nil || !w.LowBalanceThreshold.IsPositive() {
		return
	}
	if before.LessThan(w.LowBalanceThreshold) || !after.LessThan(w.LowBalanceThreshold) {
		return
	}
	s.metrics.IncLowBalance()
	event := notify.NewEvent(ctx, notify.EventWalletLowBalance, w.PartnerID, map[string]any{
		"wallet_id": w.ID.String(),
		"currency":  w.Currency,
		"balance":   after.StringFixed(2),
		"threshold": w.LowBalanceThreshold.StringFixed(2),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "low balance notification failed",
			"wallet_id", w.ID.String(),
			"error", err,
		)
	}
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return requireCents(amount)
}

func requireCents(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return dErrors.New(dErrors.CodeValidation, "amount must have at most two decimal places")
	}
	return nil
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrImmutable):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "ledger rows are append-only")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
