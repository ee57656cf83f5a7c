package dashboard

import (
	"context"
	"fmt"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/signals"
)

// Actions are the dashboard mutations. Each emits its signal only after the
// server confirmed the change.
type Actions struct {
	api    API
	bus    *signals.Bus
	sel    *Selection
	logger logger.Logger
}

func NewActions(api API, sel *Selection, bus *signals.Bus, log logger.Logger) *Actions {
	return &Actions{api: api, bus: bus, sel: sel, logger: log.WithField("component", "actions")}
}

func (a *Actions) MarkAlertRead(ctx context.Context, alertIdx int64) error {
	return a.PatchAlert(ctx, alertIdx, domain.AlertPatch{Read: true})
}

func (a *Actions) PatchAlert(ctx context.Context, alertIdx int64, p domain.AlertPatch) error {
	if err := a.api.PatchAlert(ctx, alertIdx, p); err != nil {
		return fmt.Errorf("patch alert %d: %w", alertIdx, err)
	}
	signals.Emit(a.bus, signals.AlertsUpdated, struct{}{})
	return nil
}

func (a *Actions) SelectParking(parkingIdx string) {
	a.sel.SetParking(parkingIdx)
}

func (a *Actions) SelectDistrict(d signals.District) {
	a.sel.SetDistrict(d)
}
