package rails

import (
	"context"
	"errors"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	domainRepos "agent-gate.backend/internal/domain/repositories"
)

// Router decision reason codes, recorded on the payment for audit.
const (
	ReasonAmountAboveDirectMax = "amount_above_direct_max"
	ReasonPolicyDirectDisabled = "policy_direct_disabled"
	ReasonNoDirectEndpoint     = "no_direct_endpoint"
	ReasonHighRiskTier         = "high_risk_tier"
	ReasonDirectEligible       = "direct_eligible"
)

// RouteContext carries everything the selection rules consult.
type RouteContext struct {
	Amount   int64
	Currency string
	Vendor   string
	RiskTier entities.RiskTier
	Flags    entities.RailFlags
}

// Decision is the selected rail plus the rule that picked it.
type Decision struct {
	Rail     entities.Rail
	Reason   string
	Endpoint *entities.VendorDirectEndpoint
}

// Router picks a settlement rail from ordered deterministic rules. The first
// matching rule wins; everything falls through to the card rail.
type Router struct {
	endpoints       domainRepos.VendorEndpointRepository
	directMaxAmount int64
}

// NewRouter creates a rail router.
func NewRouter(endpoints domainRepos.VendorEndpointRepository, directMaxAmount int64) *Router {
	return &Router{endpoints: endpoints, directMaxAmount: directMaxAmount}
}

// Select applies the selection rules in order.
func (r *Router) Select(ctx context.Context, rc RouteContext) (*Decision, error) {
	if rc.Amount > r.directMaxAmount {
		return &Decision{Rail: entities.RailCard, Reason: ReasonAmountAboveDirectMax}, nil
	}
	if !rc.Flags.Direct {
		return &Decision{Rail: entities.RailCard, Reason: ReasonPolicyDirectDisabled}, nil
	}

	endpoint, err := r.endpoints.GetEnabledByVendor(ctx, rc.Vendor)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &Decision{Rail: entities.RailCard, Reason: ReasonNoDirectEndpoint}, nil
		}
		return nil, err
	}

	if rc.RiskTier == entities.RiskTierHigh {
		return &Decision{Rail: entities.RailCard, Reason: ReasonHighRiskTier}, nil
	}

	return &Decision{
		Rail:     entities.RailDirect,
		Reason:   ReasonDirectEligible,
		Endpoint: endpoint,
	}, nil
}
