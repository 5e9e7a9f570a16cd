package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

type providerParams struct {
	fx.In

	Log  *zap.Logger
	Repo taxdomain.Repository
}

type snapshotProvider struct {
	log  *zap.Logger
	repo taxdomain.Repository
}

// NewSnapshotProvider builds the configuration loader the document service
// calls before every totals recomputation. Each Load is one consistent
// read; the returned snapshot is never cached so configuration edits take
// effect on the next recomputation.
func NewSnapshotProvider(p providerParams) taxdomain.SnapshotProvider {
	return &snapshotProvider{
		log:  p.Log.Named("tax.snapshot"),
		repo: p.Repo,
	}
}

func (p *snapshotProvider) Load(ctx context.Context) (*taxdomain.ConfigSnapshot, error) {
	rules, groups, err := p.repo.LoadConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	snap := taxdomain.ConfigSnapshot{
		Snapshot: taxengine.Snapshot{
			Rules:  make(map[snowflake.ID]taxengine.Rule, len(rules)),
			Groups: make(map[snowflake.ID]taxengine.Group, len(groups)),
		},
	}

	for i := range rules {
		rule := rules[i].EngineRule()
		snap.Snapshot.Rules[rule.ID] = rule
		if rules[i].Scope == taxdomain.TaxScopeDocument {
			snap.DocumentRules = append(snap.DocumentRules, rule)
		}
	}
	for i := range groups {
		group := groups[i].EngineGroup()
		snap.Snapshot.Groups[group.ID] = group
	}

	return &snap, nil
}
