package state

import (
	"context"
	"encoding/json"
	"strings"
)

const PnLSnapshotKey = "pnl:last_snapshot"

// PnLSnapshot is the last reported mark-to-market valuation. All
// engine state is rebuilt from the live feed on restart; the snapshot
// only gives operators continuity across restarts.
type PnLSnapshot struct {
	Cash         int64            `json:"cash"`
	MarkToMarket int64            `json:"mark_to_market"`
	Inventory    map[string]int64 `json:"inventory"`
	Tick         int64            `json:"tick"`
	UpdatedAtMS  int64            `json:"updated_at_ms"`
}

func LoadPnLSnapshot(ctx context.Context, store Store) (PnLSnapshot, bool, error) {
	if store == nil {
		return PnLSnapshot{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, PnLSnapshotKey)
	if err != nil {
		return PnLSnapshot{}, false, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return PnLSnapshot{}, false, nil
	}
	var snapshot PnLSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return PnLSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func SavePnLSnapshot(ctx context.Context, store Store, snapshot PnLSnapshot) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return store.Set(ctx, PnLSnapshotKey, string(payload))
}
