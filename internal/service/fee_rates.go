package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/tontine/internal/apperr"
	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/config"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/pkg/api"
)

// SettingsWriter persists runtime settings. storage.Store satisfies it.
type SettingsWriter interface {
	SetSetting(ctx context.Context, key, value string) error
}

// FeeSettings backs GetFeeRates and SetFeeRates.
type FeeSettings struct {
	Source config.FeeSource
	// Settings stores overrides; nil disables SetFeeRates.
	Settings SettingsWriter
	// Operators may change fee rates.
	Operators []string
}

// GetFeeRates returns the fee rates in force.
func (s *TontineService) GetFeeRates(ctx context.Context, req *connect.Request[api.GetFeeRatesRequest]) (*connect.Response[api.GetFeeRatesResponse], error) {
	if _, ok := auth.FromContext(ctx); !ok {
		return nil, connectError(apperr.New(apperr.CodeUnauthenticated, "no authenticated caller"))
	}
	sched, err := s.fees.Source.Rates(ctx)
	if err != nil {
		slog.Error("GetFeeRates failed", "error", err)
		return nil, connectError(apperr.Wrap(apperr.CodeInternal, "fee configuration unavailable", err))
	}
	return connect.NewResponse(&api.GetFeeRatesResponse{Rates: toAPIFeeRates(sched)}), nil
}

// SetFeeRates overrides the configured fee rates. Operators only.
func (s *TontineService) SetFeeRates(ctx context.Context, req *connect.Request[api.SetFeeRatesRequest]) (*connect.Response[api.SetFeeRatesResponse], error) {
	userID := auth.UserID(ctx)
	if !slices.Contains(s.fees.Operators, userID) {
		return nil, connectError(apperr.New(apperr.CodeNotAuthorized, "only operators can change fee rates"))
	}
	if s.fees.Settings == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runtime fee overrides are disabled"))
	}
	if req.Msg.Rates == nil {
		return nil, connectError(apperr.New(apperr.CodeInvalidArgument, "rates are required"))
	}

	slog.Info("SetFeeRates request received",
		"user_id", userID,
		"transaction_percent", req.Msg.Rates.TransactionPercent,
		"distribution_percent", req.Msg.Rates.DistributionPercent,
	)

	tx, err := fees.ParseRate(req.Msg.Rates.TransactionPercent)
	if err != nil {
		return nil, connectError(apperr.Wrap(apperr.CodeInvalidArgument, "invalid transaction_percent", err))
	}
	dist, err := fees.ParseRate(req.Msg.Rates.DistributionPercent)
	if err != nil {
		return nil, connectError(apperr.Wrap(apperr.CodeInvalidArgument, "invalid distribution_percent", err))
	}

	if err := s.fees.Settings.SetSetting(ctx, config.SettingTransactionFee, tx.String()); err != nil {
		slog.Error("SetFeeRates failed", "error", err)
		return nil, connectError(apperr.Wrap(apperr.CodeInternal, "failed to store fee rates", err))
	}
	if err := s.fees.Settings.SetSetting(ctx, config.SettingDistributionFee, dist.String()); err != nil {
		slog.Error("SetFeeRates failed", "error", err)
		return nil, connectError(apperr.Wrap(apperr.CodeInternal, "failed to store fee rates", err))
	}
	if inv, ok := s.fees.Source.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}

	slog.Info("SetFeeRates successful", "transaction", tx, "distribution", dist)
	return connect.NewResponse(&api.SetFeeRatesResponse{
		Rates: toAPIFeeRates(fees.Schedule{Transaction: tx, Distribution: dist}),
	}), nil
}
