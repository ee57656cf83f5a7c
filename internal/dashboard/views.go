package dashboard

import (
	"context"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/signals"
)

// Views are the dashboard panels. Each refetches only on the signals that
// change its data:
//
//	UnreadAlerts   alerts-updated
//	Summary        parking-change
//	ParkingStatus  parking-change
//	Logs           parking-change
//	Lots           district-change
//	Violations     none
type Views struct {
	UnreadAlerts  *View[int]
	Summary       *View[domain.Summary]
	ParkingStatus *View[[]domain.ParkingSpace]
	Lots          *View[[]domain.ParkingLot]
	Logs          *View[domain.ParkingLogPage]
	Violations    *View[domain.ViolationPage]
}

func NewViews(api API, sel *Selection, adminID string, bus *signals.Bus, log logger.Logger) *Views {
	return &Views{
		UnreadAlerts: NewView("unread-alerts", bus, func(ctx context.Context) (int, error) {
			alerts, err := api.Alerts(ctx, adminID, true)
			return len(alerts), err
		}, log, signals.AlertsUpdated),

		Summary: NewView("summary", bus, func(ctx context.Context) (domain.Summary, error) {
			return api.Summary(ctx, sel.Parking())
		}, log, signals.ParkingChange),

		ParkingStatus: NewView("parking-status", bus, func(ctx context.Context) ([]domain.ParkingSpace, error) {
			return api.ParkingStatus(ctx, sel.Parking())
		}, log, signals.ParkingChange),

		Lots: NewView("parking-lots", bus, func(ctx context.Context) ([]domain.ParkingLot, error) {
			return api.ParkingLots(ctx, sel.District().Code)
		}, log, signals.DistrictChange),

		Logs: NewView("parking-logs", bus, func(ctx context.Context) (domain.ParkingLogPage, error) {
			return api.ParkingLogs(ctx, sel.Parking(), 1)
		}, log, signals.ParkingChange),

		Violations: NewView("violations", bus, func(ctx context.Context) (domain.ViolationPage, error) {
			return api.Violations(ctx, 1, 10)
		}, log),
	}
}

type mountable interface {
	Mount(ctx context.Context) <-chan struct{}
	Unmount()
}

func (v *Views) all() []mountable {
	return []mountable{v.UnreadAlerts, v.Summary, v.ParkingStatus, v.Lots, v.Logs, v.Violations}
}

// MountAll mounts every view and waits for the initial fetches to settle or
// ctx to end.
func (v *Views) MountAll(ctx context.Context) {
	pending := make([]<-chan struct{}, 0, 6)
	for _, m := range v.all() {
		pending = append(pending, m.Mount(ctx))
	}
	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

func (v *Views) UnmountAll() {
	for _, m := range v.all() {
		m.Unmount()
	}
}
