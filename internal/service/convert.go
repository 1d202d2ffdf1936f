package service

import (
	"github.com/mmynk/tontine/internal/engine"
	"github.com/mmynk/tontine/internal/fees"
	"github.com/mmynk/tontine/internal/models"
	"github.com/mmynk/tontine/pkg/api"
)

func toAPIGroup(g *models.Group) *api.Group {
	order := g.RotationOrder
	if order == nil {
		order = []string{}
	}
	return &api.Group{
		ID:            g.ID,
		Name:          g.Name,
		Amount:        g.Amount,
		AmountDisplay: fees.Format(g.Amount, g.Currency),
		Currency:      g.Currency,
		Cadence:       string(g.Cadence),
		OrderingMode:  string(g.OrderingMode),
		Status:        string(g.Status),
		EscrowBalance: g.EscrowBalance,
		RotationOrder: order,
		CurrentRound:  g.CurrentRound,
		CreatedBy:     g.CreatedBy,
		CreatedAt:     g.CreatedAt,
	}
}

func toAPIMember(m *models.Member) *api.Member {
	return &api.Member{
		ID:        m.ID,
		GroupID:   m.GroupID,
		UserID:    m.UserID,
		WalletID:  m.WalletID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		InvitedAt: m.InvitedAt,
		JoinedAt:  m.JoinedAt,
	}
}

func toAPIContribution(c *models.ContributionRound) *api.Contribution {
	return &api.Contribution{
		ID:        c.ID,
		GroupID:   c.GroupID,
		MemberID:  c.MemberID,
		Sequence:  c.Sequence,
		Amount:    c.Amount,
		FeeAmount: c.FeeAmount,
		Status:    string(c.Status),
		DueAt:     c.DueAt,
		PaidAt:    c.PaidAt,
	}
}

func toAPIRound(r *engine.Round) *api.Round {
	if r == nil {
		return nil
	}
	out := &api.Round{
		GroupID:              r.GroupID,
		Sequence:             r.Sequence,
		BeneficiaryID:        r.BeneficiaryID,
		DueAt:                r.DueAt,
		Contributions:        make([]*api.Contribution, len(r.Contributions)),
		OutstandingMemberIDs: r.Outstanding,
		Complete:             r.Complete,
	}
	for i, c := range r.Contributions {
		out.Contributions[i] = toAPIContribution(c)
	}
	if r.Distribution != nil {
		out.Distribution = toAPIDistribution(r.Distribution, r.Currency)
	}
	return out
}

func toAPIPenalty(p *models.Penalty) *api.Penalty {
	return &api.Penalty{
		ID:            p.ID,
		GroupID:       p.GroupID,
		MemberID:      p.MemberID,
		RoundSequence: p.RoundSequence,
		Amount:        p.Amount,
		Reason:        string(p.Reason),
		Note:          p.Note,
		Status:        string(p.Status),
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		PaidAt:        p.PaidAt,
	}
}

func toAPIDistribution(d *models.Distribution, currency string) *api.Distribution {
	return &api.Distribution{
		ID:            d.ID,
		GroupID:       d.GroupID,
		Sequence:      d.Sequence,
		BeneficiaryID: d.BeneficiaryID,
		Gross:         d.Gross,
		Fee:           d.Fee,
		Net:           d.Net,
		NetDisplay:    fees.Format(d.Net, currency),
		CreatedAt:     d.CreatedAt,
	}
}

func toAPIFeeRates(s fees.Schedule) *api.FeeRates {
	return &api.FeeRates{
		TransactionPercent:  s.Transaction.String(),
		DistributionPercent: s.Distribution.String(),
	}
}
