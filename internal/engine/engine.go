// Package engine implements the tontine state machine: membership, rotation
// order, contribution rounds, penalties and distributions.
//
// Every operation takes the caller's identity from the context (see
// auth.WithIdentity). Mutations of one group are serialized by a group-scoped
// lock; wallet calls are bounded by a timeout and state only commits after
// the wallet call has succeeded.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/config"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/internal/lock"
	"github.com/mmynk/tontine/internal/metrics"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/storage"
	"github.com/mmynk/tontine/internal/wallet"
)

// DefaultWalletTimeout bounds wallet calls when Deps.WalletTimeout is zero.
const DefaultWalletTimeout = 10 * time.Second

// Deps are the collaborators of an Engine. Store and Wallet are required.
type Deps struct {
	Store    storage.Store
	Wallet   wallet.Wallet
	Locker   lock.Locker
	Fees     config.FeeSource
	Notifier notify.Notifier
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	WalletTimeout time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Engine is the tontine engine.
type Engine struct {
	store         storage.Store
	wallet        wallet.Wallet
	locker        lock.Locker
	fees          config.FeeSource
	notifier      notify.Notifier
	metrics       *metrics.Collector
	logger        *slog.Logger
	walletTimeout time.Duration
	now           func() time.Time
}

// New creates an Engine, filling unset optional collaborators with
// in-process defaults.
func New(deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if deps.Wallet == nil {
		return nil, errors.New("engine: wallet is required")
	}
	e := &Engine{
		store:         deps.Store,
		wallet:        deps.Wallet,
		locker:        deps.Locker,
		fees:          deps.Fees,
		notifier:      deps.Notifier,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		walletTimeout: deps.WalletTimeout,
		now:           deps.Now,
	}
	if e.locker == nil {
		e.locker = lock.NewKeyedMutex()
	}
	if e.fees == nil {
		e.fees = config.StaticFees{}
	}
	if e.notifier == nil {
		e.notifier = notify.Nop{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.walletTimeout <= 0 {
		e.walletTimeout = DefaultWalletTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// caller returns the authenticated user ID.
func caller(ctx context.Context) (string, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "", apperr.New(apperr.CodeUnauthenticated, "no authenticated caller")
	}
	return id.UserID, nil
}

// withGroupLock runs fn while holding the group's exclusive lock.
func (e *Engine) withGroupLock(ctx context.Context, groupID string, fn func() error) error {
	unlock, err := e.locker.Lock(ctx, lock.GroupKey(groupID))
	if err != nil {
		return apperr.Wrap(apperr.CodeLockUnavailable, "group is busy, retry later", err)
	}
	defer unlock()
	return fn()
}

func (e *Engine) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "group_id is required")
	}
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeGroupNotFound, "group "+groupID)
	}
	return group, nil
}

// membership returns the caller's live membership in the group.
func (e *Engine) membership(ctx context.Context, groupID, userID string) (*models.Member, error) {
	if groupID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "group_id is required")
	}
	m, err := e.store.GetMemberByUser(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		if _, gerr := e.store.GetGroup(ctx, groupID); errors.Is(gerr, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeGroupNotFound, "group "+groupID+" not found", gerr)
		}
		return nil, apperr.New(apperr.CodeNotAuthorized, "caller is not a member of this group")
	}
	if err != nil {
		return nil, storeErr(err, apperr.CodeMemberNotFound, "member")
	}
	return m, nil
}

// requireAdmin returns the caller's membership if they are the group admin.
func (e *Engine) requireAdmin(ctx context.Context, groupID string) (*models.Member, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	m, err := e.membership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() || !m.IsActive() {
		return nil, apperr.New(apperr.CodeNotAuthorized, "only the group admin can do this")
	}
	return m, nil
}

// requireMember returns the caller's live membership, PENDING included.
func (e *Engine) requireMember(ctx context.Context, groupID string) (*models.Member, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return e.membership(ctx, groupID, userID)
}

// requireSelfOrAdmin allows the member themselves or the group admin.
func (e *Engine) requireSelfOrAdmin(ctx context.Context, member *models.Member) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	if member.UserID == userID {
		return nil
	}
	_, err = e.requireAdmin(ctx, member.GroupID)
	return err
}

func (e *Engine) rates(ctx context.Context) (fees.Schedule, error) {
	sched, err := e.fees.Rates(ctx)
	if err != nil {
		return fees.Schedule{}, apperr.Wrap(apperr.CodeInternal, "fee configuration unavailable", err)
	}
	return sched, nil
}

// debit calls the wallet under the wallet timeout.
func (e *Engine) debit(ctx context.Context, walletID string, amount int64, key, memo string) (int64, error) {
	wctx, cancel := context.WithTimeout(ctx, e.walletTimeout)
	defer cancel()

	start := time.Now()
	balance, err := e.wallet.Debit(wctx, walletID, amount, key, memo)
	e.metrics.WalletCall("debit", start, err)
	if err != nil {
		return 0, walletErr(ctx, wctx, err, apperr.CodeWalletDebitFailed)
	}
	return balance, nil
}

// credit calls the wallet under the wallet timeout.
func (e *Engine) credit(ctx context.Context, walletID string, amount int64, key, memo string) error {
	wctx, cancel := context.WithTimeout(ctx, e.walletTimeout)
	defer cancel()

	start := time.Now()
	err := e.wallet.Credit(wctx, walletID, amount, key, memo)
	e.metrics.WalletCall("credit", start, err)
	if err != nil {
		return walletErr(ctx, wctx, err, apperr.CodeWalletCreditFailed)
	}
	return nil
}

// quote fixes the fee charged under a wallet key at its first attempt.
func (e *Engine) quote(ctx context.Context, key string, fee int64) (int64, error) {
	quoted, err := e.store.QuoteFee(ctx, key, fee)
	if err != nil {
		return 0, internal("failed to quote fee", err)
	}
	return quoted, nil
}

// emit publishes an event. Delivery failures are logged only.
func (e *Engine) emit(ctx context.Context, ev notify.Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	if err := e.notifier.Notify(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "Notification failed",
			"type", ev.Type,
			"group_id", ev.GroupID,
			"error", err,
		)
	}
}

// observe counts an operation by outcome.
func (e *Engine) observe(op string, err error) {
	switch {
	case err == nil:
		e.metrics.Operation(op, metrics.OutcomeOK)
	case apperr.CodeOf(err).Kind() == apperr.KindInternal:
		e.metrics.Operation(op, metrics.OutcomeFailed)
	default:
		e.metrics.Operation(op, metrics.OutcomeRejected)
	}
}

// logFailure logs err at a level matching its kind.
func (e *Engine) logFailure(ctx context.Context, op string, err error, args ...any) {
	args = append(args, "code", apperr.CodeOf(err), "error", err)
	switch apperr.CodeOf(err) {
	case apperr.CodeInternal, apperr.CodeUnknown, apperr.CodeWalletDebitFailed, apperr.CodeWalletCreditFailed:
		e.logger.ErrorContext(ctx, op+" failed", args...)
	default:
		e.logger.WarnContext(ctx, op+" rejected", args...)
	}
}

func walletErr(parent, wctx context.Context, err error, fallback apperr.Code) error {
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return apperr.Wrap(apperr.CodeInsufficientFunds, "insufficient funds in wallet", err)
	case errors.Is(err, wallet.ErrWalletNotFound):
		return apperr.Wrap(apperr.CodeWalletNotFound, "wallet not found", err)
	case parent.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded):
		return apperr.Wrap(apperr.CodeWalletTimeout, "wallet did not answer in time", err)
	}
	return apperr.Wrap(fallback, "wallet call failed", err)
}

// storeErr translates storage sentinels. ErrNotFound becomes notFound;
// anything else is internal.
func storeErr(err error, notFound apperr.Code, what string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(notFound, what+" not found", err)
	}
	return apperr.Wrap(apperr.CodeInternal, fmt.Sprintf("storage failure reading %s", what), err)
}

func internal(what string, err error) error {
	return apperr.Wrap(apperr.CodeInternal, what, err)
}
