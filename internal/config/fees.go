package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/tontine/internal/fees"
)

// Setting keys holding runtime fee overrides, as decimal percent strings.
const (
	SettingTransactionFee  = "fees.transaction_percent"
	SettingDistributionFee = "fees.distribution_percent"
)

// FeeSource supplies the fee rates in force. It is consulted on every
// operation so rate changes apply without a restart.
type FeeSource interface {
	Rates(ctx context.Context) (fees.Schedule, error)
}

// StaticFees always returns the same schedule.
type StaticFees struct {
	Schedule fees.Schedule
}

func (s StaticFees) Rates(context.Context) (fees.Schedule, error) {
	return s.Schedule, nil
}

// SettingsReader reads runtime settings. storage.Store satisfies it.
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// SettingsFees reads fee overrides from the settings table, falling back to
// defaults for unset keys. Results are cached for ttl and concurrent misses
// share a single read.
type SettingsFees struct {
	settings SettingsReader
	defaults fees.Schedule
	ttl      time.Duration
	now      func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	cached    fees.Schedule
	expiresAt time.Time
}

// NewSettingsFees creates a SettingsFees source.
func NewSettingsFees(settings SettingsReader, defaults fees.Schedule, ttl time.Duration) *SettingsFees {
	return &SettingsFees{
		settings: settings,
		defaults: defaults,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Rates returns the cached schedule or reloads it from settings.
func (s *SettingsFees) Rates(ctx context.Context) (fees.Schedule, error) {
	s.mu.Lock()
	if s.now().Before(s.expiresAt) {
		sched := s.cached
		s.mu.Unlock()
		return sched, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("rates", func() (any, error) {
		sched, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cached = sched
		s.expiresAt = s.now().Add(s.ttl)
		s.mu.Unlock()
		return sched, nil
	})
	if err != nil {
		return fees.Schedule{}, err
	}
	return v.(fees.Schedule), nil
}

// Invalidate drops the cached schedule.
func (s *SettingsFees) Invalidate() {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

func (s *SettingsFees) load(ctx context.Context) (fees.Schedule, error) {
	tx, err := s.rate(ctx, SettingTransactionFee, s.defaults.Transaction)
	if err != nil {
		return fees.Schedule{}, err
	}
	dist, err := s.rate(ctx, SettingDistributionFee, s.defaults.Distribution)
	if err != nil {
		return fees.Schedule{}, err
	}
	return fees.Schedule{Transaction: tx, Distribution: dist}, nil
}

func (s *SettingsFees) rate(ctx context.Context, key string, fallback fees.Rate) (fees.Rate, error) {
	raw, ok, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return fallback, nil
	}
	r, err := fees.ParseRate(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return r, nil
}
