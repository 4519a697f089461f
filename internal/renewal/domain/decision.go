package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
)

type Decision string

const (
	// DecisionHold: a later plan is already being serviced or finished;
	// settle and do not advance anything.
	DecisionHold Decision = "hold"
	// DecisionAdoptNext: the next cycle was pre-paid; carry the current
	// configuration onto it.
	DecisionAdoptNext Decision = "adopt_next"
	// DecisionSkipAutorenew: next cycle unpaid and autorenew is off.
	DecisionSkipAutorenew Decision = "skip_autorenew"
	// DecisionPurchase: next cycle unpaid and autorenew is on; charge.
	DecisionPurchase Decision = "purchase"
)

// NeedsAutorenewPreference reports whether Decide will consult the
// autorenew flag for the given successor status. It only matters when
// the next plan is still unpaid, so callers resolve the preference
// lazily.
func NeedsAutorenewPreference(nextStatus plandomain.PlanStatus) bool {
	switch nextStatus {
	case plandomain.PlanStatusProgress, plandomain.PlanStatusDone, plandomain.PlanStatusPaid:
		return false
	}
	return true
}

// Decide is the pure branch point of the renewal workflow.
func Decide(nextStatus plandomain.PlanStatus, autorenew bool) Decision {
	switch nextStatus {
	case plandomain.PlanStatusProgress, plandomain.PlanStatusDone:
		return DecisionHold
	case plandomain.PlanStatusPaid:
		return DecisionAdoptNext
	}
	if !autorenew {
		return DecisionSkipAutorenew
	}
	return DecisionPurchase
}

// Service runs one renewal workflow for an expired content plan.
type Service interface {
	Expire(ctx context.Context, planID snowflake.ID) error
}
