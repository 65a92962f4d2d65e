package hostmodel

import "github.com/dkoosis/rollup/pkg/remap"

// promotion adapts a Build to remap.Promotion. Edges are resolved lazily
// through the model so that unknown dependency ids are simply skipped.
type promotion struct {
	m          *Model
	build      Build
	dependents []int64
}

var _ remap.Promotion = (*promotion)(nil)

func (p *promotion) PromotionID() int64  { return p.build.ID }
func (p *promotion) BuildTypeID() string { return p.build.BuildTypeID }

func (p *promotion) Virtual() bool {
	bt, ok := p.m.buildTypes[p.build.BuildTypeID]
	return ok && bt.Virtual
}

func (p *promotion) Dependencies() []remap.Promotion { return p.resolve(p.build.Dependencies) }
func (p *promotion) Dependents() []remap.Promotion   { return p.resolve(p.dependents) }

func (p *promotion) resolve(ids []int64) []remap.Promotion {
	out := make([]remap.Promotion, 0, len(ids))
	for _, id := range ids {
		if d, ok := p.m.builds[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
