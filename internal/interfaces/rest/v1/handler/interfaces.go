package handler

import (
	"context"
	"io"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/repository"
)

// The stores below are satisfied by the repositories in
// internal/infrastructure/repository.

type AdminStore interface {
	FindByID(ctx context.Context, adminID string) (*domain.Admin, error)
	Create(ctx context.Context, a *domain.Admin) error
}

type AlertStore interface {
	List(ctx context.Context, adminID string, unreadOnly bool) ([]domain.Alert, error)
	Patch(ctx context.Context, alertIdx int64, p domain.AlertPatch) error
}

type DashboardStore interface {
	Summary(ctx context.Context, parkingIdx *int64) (domain.Summary, error)
	ParkingStatus(ctx context.Context, parkingIdx *int64) ([]domain.ParkingSpace, error)
	RecentViolations(ctx context.Context, parkingIdx *int64) ([]domain.RecentViolation, error)
	RecentLogs(ctx context.Context, parkingIdx *int64) ([]domain.ParkingLog, error)
	SummaryByParking(ctx context.Context, parkingIdx *int64) ([]domain.LotSummary, error)
}

type ParkingStore interface {
	Lots(ctx context.Context, district string) ([]domain.ParkingLot, error)
	Location(ctx context.Context, parkingIdx int64) (string, error)
}

type ParkingLogStore interface {
	List(ctx context.Context, f repository.ParkingLogFilter) (domain.ParkingLogPage, error)
}

type ViolationStore interface {
	List(ctx context.Context, f repository.ViolationFilter) (domain.ViolationPage, error)
	Get(ctx context.Context, violationIdx int64) (*domain.Violation, error)
}

type StatsStore interface {
	Table(ctx context.Context, kind repository.StatsKind, f repository.StatsFilter) (repository.StatsTable, error)
}

type VehicleStore interface {
	Insert(ctx context.Context, v domain.Vehicle) error
}

type FrameUploader interface {
	UploadFrame(ctx context.Context, plate string, body io.Reader, contentType string) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Broadcaster pushes server-originated documents to relay clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, message *hub.Message) error
	ConnectionCount() int
}

var (
	_ AdminStore      = (*repository.AdminRepository)(nil)
	_ AlertStore      = (*repository.AlertRepository)(nil)
	_ DashboardStore  = (*repository.DashboardRepository)(nil)
	_ ParkingStore    = (*repository.ParkingRepository)(nil)
	_ ParkingLogStore = (*repository.ParkingLogRepository)(nil)
	_ ViolationStore  = (*repository.ViolationRepository)(nil)
	_ StatsStore      = (*repository.StatsRepository)(nil)
	_ VehicleStore    = (*repository.VehicleRepository)(nil)
	_ Broadcaster     = (*hub.Hub)(nil)
)
