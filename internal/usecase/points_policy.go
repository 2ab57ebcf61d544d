package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PointsPolicyStandard    = "standard"
	PointsPolicyPicksOnly   = "picks-only"
	PointsPolicyPnLWeighted = "pnl-weighted"

	pointsScale = 4
)

type PointsInput struct {
	PickCredits   decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// PointsPolicy turns pick correctness and swap P&L into league points.
type PointsPolicy interface {
	Name() string
	PickCredit(correct bool) decimal.Decimal
	Points(input PointsInput) decimal.Decimal
}

// LinearPointsPolicy credits picks at fixed values and weights P&L linearly.
type LinearPointsPolicy struct {
	PolicyName       string
	CorrectPick      decimal.Decimal
	IncorrectPick    decimal.Decimal
	RealizedWeight   decimal.Decimal
	UnrealizedWeight decimal.Decimal
}

func (p LinearPointsPolicy) Name() string {
	return p.PolicyName
}

func (p LinearPointsPolicy) PickCredit(correct bool) decimal.Decimal {
	if correct {
		return p.CorrectPick
	}
	return p.IncorrectPick
}

func (p LinearPointsPolicy) Points(input PointsInput) decimal.Decimal {
	return input.PickCredits.
		Add(input.RealizedPnL.Mul(p.RealizedWeight)).
		Add(input.UnrealizedPnL.Mul(p.UnrealizedWeight)).
		Round(pointsScale)
}

func StandardPointsPolicy() LinearPointsPolicy {
	return LinearPointsPolicy{
		PolicyName:     PointsPolicyStandard,
		CorrectPick:    decimal.NewFromInt(10),
		RealizedWeight: decimal.NewFromInt(100),
	}
}

func PicksOnlyPointsPolicy() LinearPointsPolicy {
	return LinearPointsPolicy{
		PolicyName:  PointsPolicyPicksOnly,
		CorrectPick: decimal.NewFromInt(10),
	}
}

func PnLWeightedPointsPolicy() LinearPointsPolicy {
	return LinearPointsPolicy{
		PolicyName:     PointsPolicyPnLWeighted,
		CorrectPick:    decimal.NewFromInt(5),
		RealizedWeight: decimal.NewFromInt(250),
	}
}

// PointsPolicyRegistry resolves a league's policy name. Empty names resolve to standard.
type PointsPolicyRegistry struct {
	policies map[string]PointsPolicy
}

func NewPointsPolicyRegistry(policies ...PointsPolicy) *PointsPolicyRegistry {
	if len(policies) == 0 {
		policies = []PointsPolicy{StandardPointsPolicy(), PicksOnlyPointsPolicy(), PnLWeightedPointsPolicy()}
	}
	r := &PointsPolicyRegistry{policies: make(map[string]PointsPolicy, len(policies))}
	for _, policy := range policies {
		if policy == nil {
			continue
		}
		r.policies[strings.ToLower(strings.TrimSpace(policy.Name()))] = policy
	}
	return r
}

func (r *PointsPolicyRegistry) Resolve(name string) (PointsPolicy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = PointsPolicyStandard
	}
	policy, ok := r.policies[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown points policy %q (known: %s)", ErrInvariantViolation, name, strings.Join(r.Names(), ","))
	}
	return policy, nil
}

func (r *PointsPolicyRegistry) Names() []string {
	out := make([]string, 0, len(r.policies))
	for name := range r.policies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
