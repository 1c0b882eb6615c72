package pipeline

import (
	"context"
	"fmt"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/observability"
)

// SnapshotsResult reports one sampling pass.
type SnapshotsResult struct {
	Summary string
	Stored  []*domain.ReserveSnapshot

	// FailedProtocols lists protocols whose provider call failed this
	// pass. They are retried on the next interval.
	FailedProtocols []string
}

// RunSnapshots samples every registered protocol's reserves and appends one
// snapshot per reserve. A provider failure skips that protocol only.
func (p *Pipelines) RunSnapshots(ctx context.Context, opts Options) (*SnapshotsResult, error) {
	res := &SnapshotsResult{}

	for _, protocol := range p.registry.Protocols() {
		provider, err := p.registry.Get(protocol)
		if err != nil {
			return nil, err
		}

		reserves, err := provider.GetReserves(ctx)
		if err != nil {
			p.logger.Printf("[pipeline] snapshots: %s reserves unavailable: %v", protocol, err)
			res.FailedProtocols = append(res.FailedProtocols, string(protocol))
			continue
		}

		for _, obs := range reserves {
			snap := obs.ReserveSnapshot
			if err := p.snapshots.Put(ctx, &snap); err != nil {
				p.logger.Printf("[pipeline] snapshots: store %s/%s: %v", protocol, obs.CoinName, err)
				continue
			}
			observability.RecordSnapshotStored()
			res.Stored = append(res.Stored, &snap)
			p.logf(opts, "snapshots: %s %s apy=%.2f%% utilization=%.2f%%",
				protocol, obs.CoinName, obs.APY, obs.UtilizationRate)
		}
	}

	if len(res.Stored) == 0 && len(res.FailedProtocols) > 0 {
		return res, fmt.Errorf("no protocol could be sampled (failed: %v)", res.FailedProtocols)
	}

	res.Summary = fmt.Sprintf("captured %d reserve snapshots across %d protocols",
		len(res.Stored), len(p.registry.Protocols())-len(res.FailedProtocols))
	return res, nil
}
