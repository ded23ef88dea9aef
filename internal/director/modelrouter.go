package director

import (
	"context"
	"strings"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/fallback"

	"github.com/adrianhensler/botterverse/pkg/llm"
	"github.com/adrianhensler/botterverse/pkg/logging"
)

type Tier string

const (
	TierEconomy Tier = "economy"
	TierPremium Tier = "premium"
)

// ModelRoute is the per-request provider decision. Derived, never persisted.
type ModelRoute struct {
	Tier      Tier
	Provider  llm.Provider
	ModelName string
}

// TierConfig maps a tier to a concrete provider and model name. The mapping
// is configuration; the router only decides which tier a request deserves.
type TierConfig struct {
	Provider  llm.Provider
	ModelName string
}

// ModelRouter selects a tier per request and executes generation with a
// local fallback. Personas with a high-value tone get the premium tier, as
// does any moment the director flags as premium (an event reaction worth
// spending on).
type ModelRouter struct {
	economy      TierConfig
	premium      TierConfig
	local        llm.Provider
	premiumTones []string
	logger       logging.Logger
}

func NewModelRouter(economy, premium TierConfig, local llm.Provider, premiumTones []string, logger logging.Logger) *ModelRouter {
	return &ModelRouter{
		economy:      economy,
		premium:      premium,
		local:        local,
		premiumTones: premiumTones,
		logger:       logger,
	}
}

// Route picks the tier for a persona. premiumMoment forces the premium tier
// regardless of tone; tone matching is a substring check so "semi-formal"
// still routes premium.
func (r *ModelRouter) Route(p Persona, premiumMoment bool) ModelRoute {
	tier := TierEconomy
	cfg := r.economy
	if premiumMoment || r.toneIsPremium(p.Tone) {
		tier = TierPremium
		cfg = r.premium
	}
	return ModelRoute{Tier: tier, Provider: cfg.Provider, ModelName: cfg.ModelName}
}

func (r *ModelRouter) toneIsPremium(tone string) bool {
	lc := strings.ToLower(tone)
	for _, t := range r.premiumTones {
		if strings.Contains(lc, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// Result carries a finished generation back to the director. ModelName is
// the model that actually produced the text, which differs from the routed
// model when the fallback fired.
type Result struct {
	Output       string
	ModelName    string
	FallbackUsed bool
}

// Generate runs the request against the routed provider, falling back once
// to the local adapter on any provider error. The fallback path is recorded
// in the result so the audit trail never hides a degraded generation. An
// error is returned only when the fallback itself fails.
func (r *ModelRouter) Generate(ctx context.Context, route ModelRoute, req llm.Request) (Result, error) {
	req.Model = route.ModelName

	fallbackUsed := false
	modelName := route.ModelName
	fb := fallback.NewWithFunc(func(exec failsafe.Execution[string]) (string, error) {
		r.logger.WithFields(logging.Fields{
			"provider": route.Provider.Name(),
			"model":    route.ModelName,
			"error":    exec.LastError(),
		}).Warn("Provider failed, retrying with local fallback")
		fallbackUsed = true
		modelName = llm.LocalModelName

		localReq := req
		localReq.Model = llm.LocalModelName
		return r.local.Generate(ctx, localReq)
	})

	out, err := failsafe.With(fb).Get(func() (string, error) {
		return route.Provider.Generate(ctx, req)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, ModelName: modelName, FallbackUsed: fallbackUsed}, nil
}
