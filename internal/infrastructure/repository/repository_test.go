package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/logger"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMockStore(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return database.New(sqlDB, logger.Nop{}, nil), mock
}

func ptr[T any](v T) *T { return &v }

func TestAdminRepository_FindByID(t *testing.T) {
	db, mock := setupMockStore(t)
	repo := NewAdminRepository(db)
	joined := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tb_admin")).
		WithArgs("kim").
		WillReturnRows(sqlmock.NewRows([]string{"admin_id", "name", "phone", "email", "role", "hashed_password", "joined_at"}).
			AddRow("kim", "Kim", nil, "kim@example.com", nil, "$argon2id$...", joined))

	admin, err := repo.FindByID(context.Background(), "kim")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if admin.Name != "Kim" || admin.Email != "kim@example.com" || admin.Phone != "" {
		t.Errorf("Unexpected admin %+v", admin)
	}
	if admin.Role != domain.RoleAdmin {
		t.Errorf("Missing role should default to admin, got %q", admin.Role)
	}
	if !admin.JoinedAt.Equal(joined) {
		t.Errorf("Unexpected joined_at %v", admin.JoinedAt)
	}
}

func TestAdminRepository_FindByID_NotFound(t *testing.T) {
	db, mock := setupMockStore(t)
	repo := NewAdminRepository(db)

	mock.ExpectQuery("FROM tb_admin").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"admin_id"}))

	_, err := repo.FindByID(context.Background(), "ghost")
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAdminRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "new admin",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT admin_id FROM tb_admin").
					WithArgs("lee").
					WillReturnRows(sqlmock.NewRows([]string{"admin_id"}))
				mock.ExpectExec("INSERT INTO tb_admin").
					WithArgs("lee", "hash", "Lee", "", "lee@example.com", "admin").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "existing admin",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT admin_id FROM tb_admin").
					WithArgs("lee").
					WillReturnRows(sqlmock.NewRows([]string{"admin_id"}).AddRow("lee"))
				mock.ExpectRollback()
			},
			wantErr: database.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockStore(t)
			tt.setupMock(mock)

			err := NewAdminRepository(db).Create(context.Background(), &domain.Admin{
				AdminID:        "lee",
				HashedPassword: "hash",
				Name:           "Lee",
				Email:          "lee@example.com",
				Role:           domain.RoleAdmin,
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestAlertRepository_ListUnread(t *testing.T) {
	db, mock := setupMockStore(t)
	repo := NewAlertRepository(db)
	sent := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE admin_id = $1 AND read_at IS NULL")).
		WithArgs("kim").
		WillReturnRows(sqlmock.NewRows([]string{
			"alert_idx", "violation_idx", "alert_type", "alert_msg", "sent_at", "is_success",
			"admin_id", "read_at", "admin_status", "admin_content", "processed_at",
		}).AddRow(int64(7), int64(3), "violation", "Car in disabled space", sent, true, "kim", nil, nil, nil, nil))

	alerts, err := repo.List(context.Background(), "kim", true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.AlertIdx != 7 || a.ViolationIdx == nil || *a.ViolationIdx != 3 {
		t.Errorf("Unexpected alert %+v", a)
	}
	if a.ReadAt != nil || a.AdminStatus != nil {
		t.Errorf("Null columns should map to nil, got %+v", a)
	}
}

func TestAlertRepository_ListAll(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectQuery(`WHERE admin_id = \$1\s+ORDER BY sent_at DESC`).
		WithArgs("kim").
		WillReturnRows(sqlmock.NewRows([]string{"alert_idx"}))

	alerts, err := NewAlertRepository(db).List(context.Background(), "kim", false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("Expected empty list, got %#v", alerts)
	}
}

func TestAlertRepository_Patch(t *testing.T) {
	tests := []struct {
		name    string
		patch   domain.AlertPatch
		query   string
		args    []driver.Value
		result  int64
		wantErr error
	}{
		{
			name:   "mark read",
			patch:  domain.AlertPatch{Read: true},
			query:  "UPDATE tb_alert SET read_at = NOW() WHERE alert_idx = $1",
			args:   []driver.Value{int64(7)},
			result: 1,
		},
		{
			name:   "process",
			patch:  domain.AlertPatch{AdminStatus: ptr("resolved"), AdminContent: ptr("towed")},
			query:  "UPDATE tb_alert SET admin_status = $1, admin_content = $2, processed_at = NOW() WHERE alert_idx = $3",
			args:   []driver.Value{"resolved", "towed", int64(7)},
			result: 1,
		},
		{
			name:    "unknown alert",
			patch:   domain.AlertPatch{Read: true},
			query:   "UPDATE tb_alert SET read_at = NOW() WHERE alert_idx = $1",
			args:    []driver.Value{int64(7)},
			result:  0,
			wantErr: database.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockStore(t)

			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, tt.result))

			err := NewAlertRepository(db).Patch(context.Background(), 7, tt.patch)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Patch failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestAlertRepository_PatchEmpty(t *testing.T) {
	db, _ := setupMockStore(t)
	if err := NewAlertRepository(db).Patch(context.Background(), 1, domain.AlertPatch{}); err == nil {
		t.Error("Empty patch should fail")
	}
}

func TestDashboardRepository_Summary(t *testing.T) {
	db, mock := setupMockStore(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tb_parking_space")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d"}).AddRow(4, 1, 20, 13))
	mock.ExpectQuery(regexp.QuoteMeta("CURRENT_DATE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	s, err := repo.Summary(context.Background(), ptr(int64(2)))
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	want := domain.Summary{
		DisabledParking: domain.Occupancy{Current: 1, Total: 4},
		GeneralParking:  domain.Occupancy{Current: 13, Total: 20},
		TodayViolations: 5,
	}
	if s != want {
		t.Errorf("Expected %+v, got %+v", want, s)
	}
}

func TestDashboardRepository_SummaryByParking(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY p.parking_idx, p.parking_loc")).
		WillReturnRows(sqlmock.NewRows([]string{"parking_idx", "parking_loc", "tg", "og", "td", "od"}).
			AddRow(1, "Gangnam", 8, 6, 2, 0).
			AddRow(2, "Jongno", 0, 0, 0, 0))

	lots, err := NewDashboardRepository(db).SummaryByParking(context.Background(), nil)
	if err != nil {
		t.Fatalf("SummaryByParking failed: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("Expected 2 lots, got %d", len(lots))
	}
	if lots[0].AvailableTotal != 4 || lots[0].Utilization != 0.6 {
		t.Errorf("Unexpected first lot %+v", lots[0])
	}
	if lots[1].Utilization != 0 {
		t.Errorf("Empty lot utilization should be 0, got %v", lots[1].Utilization)
	}
}

func TestParkingRepository_Lots(t *testing.T) {
	tests := []struct {
		name     string
		district string
		pattern  string
		args     []driver.Value
	}{
		{name: "numeric district", district: "3", pattern: `WHERE parking_idx = \$1`, args: []driver.Value{int64(3)}},
		{name: "no district", district: "", pattern: `FROM tb_parking\s+ORDER BY parking_idx`},
		{name: "non-numeric district", district: "gangnam", pattern: `FROM tb_parking\s+ORDER BY parking_idx`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockStore(t)

			expect := mock.ExpectQuery(tt.pattern)
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(sqlmock.NewRows([]string{"parking_idx", "parking_loc"}).AddRow(3, "Mapo"))

			lots, err := NewParkingRepository(db).Lots(context.Background(), tt.district)
			if err != nil {
				t.Fatalf("Lots failed: %v", err)
			}
			if len(lots) != 1 || lots[0].ParkingLoc != "Mapo" {
				t.Errorf("Unexpected lots %+v", lots)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestParkingLogRepository_List(t *testing.T) {
	db, mock := setupMockStore(t)
	entry := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(int64(1), "%12가%", "2025-03-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY pl.entry_at ASC")).
		WithArgs(int64(1), "%12가%", "2025-03-01", "2025-03-31", int64(10), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"log_idx", "ve_number", "ve_img", "space_id", "entry_at", "exit_at"}).
			AddRow(42, "12가3456", nil, 5, entry, nil))

	page, err := NewParkingLogRepository(db).List(context.Background(), ParkingLogFilter{
		Page:       2,
		Limit:      10,
		ParkingIdx: ptr(int64(1)),
		Search:     "12가",
		From:       "2025-03-01",
		To:         "2025-03-31",
		Ascending:  true,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].LogIdx != 42 || page.Items[0].ExitAt != nil {
		t.Errorf("Unexpected items %+v", page.Items)
	}
	want := domain.Pagination{TotalItems: 11, TotalPages: 2, CurrentPage: 2, PageSize: 10}
	if page.Pagination != want {
		t.Errorf("Expected %+v, got %+v", want, page.Pagination)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestViolationRepository_List(t *testing.T) {
	db, mock := setupMockStore(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("2025-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY v.created_at DESC")).
		WithArgs("2025-03-01", int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"violation_idx", "violation_type", "created_at", "ve_number", "parking_loc", "camera_loc"}).
			AddRow(9, "disabled_space", created, "34나5678", "Gangnam", "B1-east"))

	page, err := NewViolationRepository(db).List(context.Background(), ViolationFilter{Page: 1, Limit: 10, Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].CameraLoc != "B1-east" {
		t.Errorf("Unexpected data %+v", page.Data)
	}
	if page.Pagination.TotalPages != 1 || page.Pagination.CurrentPage != 1 {
		t.Errorf("Unexpected pagination %+v", page.Pagination)
	}
}

func TestViolationRepository_GetNotFound(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.violation_idx = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"violation_idx"}))

	_, err := NewViolationRepository(db).Get(context.Background(), 404)
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2025-03-01", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Format(dateTimeLayout) != "2025-03-01 00:00:00" || r.End.Format(dateTimeLayout) != "2025-03-01 23:59:59" {
		t.Errorf("Unexpected day range %v - %v", r.Start, r.End)
	}

	r, err = ParseRange("", "2025-03-01 08:00:00", "2025-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Hour() != 8 || r.End.Format(dateLayout) != "2025-03-02" {
		t.Errorf("Unexpected mixed range %v - %v", r.Start, r.End)
	}

	if r, err := ParseRange("", "", ""); err != nil || r != nil {
		t.Errorf("No bounds should give nil range, got %v, %v", r, err)
	}
	if _, err := ParseRange("", "2025-03-01", ""); err == nil {
		t.Error("Half-open range should fail")
	}
	if _, err := ParseRange("03/01/2025", "", ""); err == nil {
		t.Error("Bad format should fail")
	}
}

func TestStatsRepository_Table(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("EXTRACT(DOW FROM v.created_at)")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"weekday", "count"}).
			AddRow("Monday", int64(3)).
			AddRow("Friday", int64(1)))

	table, err := NewStatsRepository(db).Table(context.Background(), StatsByWeekday, StatsFilter{ParkingIdx: ptr(int64(2))})
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "weekday" {
		t.Errorf("Unexpected columns %v", table.Columns)
	}
	if len(table.Rows) != 2 || table.Rows[0]["weekday"] != "Monday" {
		t.Errorf("Unexpected rows %v", table.Rows)
	}
}

func TestStatsRepository_WeekGrouping(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("'IYYY-IW'")).
		WillReturnRows(sqlmock.NewRows([]string{"week", "start_date", "end_date", "count"}))

	table, err := NewStatsRepository(db).Table(context.Background(), StatsByDate, StatsFilter{Group: "week"})
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if len(table.Columns) != 4 {
		t.Errorf("Unexpected columns %v", table.Columns)
	}
}

func TestStatsRepository_UnknownKind(t *testing.T) {
	db, _ := setupMockStore(t)
	if _, err := NewStatsRepository(db).Table(context.Background(), StatsKind("by-moon"), StatsFilter{}); err == nil {
		t.Error("Unknown kind should fail")
	}
	if _, ok := ParseStatsKind("by-hour"); !ok {
		t.Error("by-hour should parse")
	}
}

func TestVehicleRepository_Insert(t *testing.T) {
	db, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tb_vehicle (ve_number, ve_img) VALUES ($1, $2)")).
		WithArgs("12가3456", "https://bucket/frames/x.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewVehicleRepository(db).Insert(context.Background(), domain.Vehicle{
		PlateNumber: "12가3456",
		ImageURL:    "https://bucket/frames/x.jpg",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}
