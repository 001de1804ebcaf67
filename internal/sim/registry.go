package sim

import (
	"fmt"
	"sort"
)

// EffectParams holds the parameters of an effect definition. Nil counts take
// the defaults: count=1, draw_count=1, discard_count=1.
type EffectParams struct {
	Count         *int
	DrawCount     *int
	DiscardFilter string
	DiscardCount  *int
}

// EffectDefinition binds an effect to the category that triggers it.
type EffectDefinition struct {
	Trigger    string
	Kind       string
	Parameters EffectParams
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// NewEffect builds an Effect from its definition.
func NewEffect(def EffectDefinition) (Effect, error) {
	kind, err := ParseEffectKind(def.Kind)
	if err != nil {
		return Effect{}, err
	}

	var eff Effect
	switch kind {
	case EffectDraw:
		eff = DrawEffect(intOr(def.Parameters.Count, 1))
	case EffectConditionalDiscard:
		eff = ConditionalDiscardEffect(
			intOr(def.Parameters.DrawCount, 1),
			def.Parameters.DiscardFilter,
			intOr(def.Parameters.DiscardCount, 1),
		)
	}
	if err := eff.Validate(); err != nil {
		return Effect{}, err
	}
	return eff, nil
}

// EffectRegistry maps a trigger category to its effect. At most one effect is
// kept per category; registering again replaces the earlier one.
type EffectRegistry struct {
	effects map[string]Effect
}

// NewEffectRegistry builds a registry from definitions, in order.
func NewEffectRegistry(defs []EffectDefinition) (*EffectRegistry, error) {
	r := &EffectRegistry{effects: make(map[string]Effect, len(defs))}
	for i, def := range defs {
		if def.Trigger == "" {
			return nil, configErrorf("effects", "definition %d has no trigger card", i+1)
		}
		eff, err := NewEffect(def)
		if err != nil {
			return nil, fmt.Errorf("effect for %q: %w", def.Trigger, err)
		}
		r.Register(def.Trigger, eff)
	}
	return r, nil
}

// Register binds eff to category, replacing any earlier binding.
func (r *EffectRegistry) Register(category string, eff Effect) {
	if r.effects == nil {
		r.effects = make(map[string]Effect)
	}
	r.effects[category] = eff
}

// Lookup returns the effect registered for category.
func (r *EffectRegistry) Lookup(category string) (Effect, bool) {
	if r == nil {
		return Effect{}, false
	}
	eff, ok := r.effects[category]
	return eff, ok
}

// Len returns the number of registered effects.
func (r *EffectRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.effects)
}

// Categories returns the trigger categories in lexicographic order.
func (r *EffectRegistry) Categories() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.effects))
	for name := range r.effects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
