package repository

import (
	"context"
	"fmt"
	"time"

	"parkwatch/internal/infrastructure/database"
)

// StatsKind names one violation breakdown.
type StatsKind string

const (
	StatsByType     StatsKind = "by-type"
	StatsByDate     StatsKind = "by-date"
	StatsByLocation StatsKind = "by-location"
	StatsByHour     StatsKind = "by-hour"
	StatsByWeekday  StatsKind = "by-weekday"
)

func ParseStatsKind(s string) (StatsKind, bool) {
	switch k := StatsKind(s); k {
	case StatsByType, StatsByDate, StatsByLocation, StatsByHour, StatsByWeekday:
		return k, true
	}
	return "", false
}

// TimeRange is an inclusive created_at window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// ParseRange builds a range from a single date or a from/to pair, each either
// YYYY-MM-DD or YYYY-MM-DD HH:MM:SS. Date-only bounds cover the whole day. It
// returns nil when no bound is given.
func ParseRange(date, from, to string) (*TimeRange, error) {
	switch {
	case date != "":
		from, to = date, date
	case from == "" && to == "":
		return nil, nil
	case from == "" || to == "":
		return nil, fmt.Errorf("both from and to are required")
	}

	start, err := parseBound(from, false)
	if err != nil {
		return nil, err
	}
	end, err := parseBound(to, true)
	if err != nil {
		return nil, err
	}
	return &TimeRange{Start: start, End: end}, nil
}

func parseBound(s string, end bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// StatsFilter narrows a breakdown. Group applies to StatsByDate only and is
// one of day, week or month.
type StatsFilter struct {
	Range      *TimeRange
	ParkingIdx *int64
	Group      string
}

// StatsTable is a breakdown with its column order.
type StatsTable struct {
	Columns []string
	Rows    []database.Row
}

type StatsRepository struct {
	db Store
}

func NewStatsRepository(db Store) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Table(ctx context.Context, kind StatsKind, f StatsFilter) (StatsTable, error) {
	w := &where{}
	if f.Range != nil {
		w.add("v.created_at >= " + w.arg(f.Range.Start) + " AND v.created_at <= " + w.arg(f.Range.End))
	}
	if f.ParkingIdx != nil {
		w.add("d.parking_idx = " + w.arg(*f.ParkingIdx))
	}

	const from = `
	  FROM tb_violation v
	  JOIN tb_detection d ON d.ve_detection_idx = v.ve_detection_idx
	`

	var (
		stmt    string
		columns []string
	)
	switch kind {
	case StatsByType:
		columns = []string{"violation_type", "count"}
		stmt = `SELECT v.violation_type AS violation_type, COUNT(*) AS count` + from + w.String() + `
		 GROUP BY v.violation_type
		 ORDER BY COUNT(*) DESC`

	case StatsByDate:
		switch f.Group {
		case "month":
			columns = []string{"period", "count"}
			stmt = `SELECT to_char(v.created_at, 'YYYY-MM') AS period, COUNT(*) AS count` + from + w.String() + `
			 GROUP BY 1
			 ORDER BY 1`
		case "week":
			columns = []string{"week", "start_date", "end_date", "count"}
			stmt = `SELECT to_char(v.created_at, 'IYYY-IW') AS week,
			               MIN(to_char(v.created_at, 'YYYY-MM-DD')) AS start_date,
			               MAX(to_char(v.created_at, 'YYYY-MM-DD')) AS end_date,
			               COUNT(*) AS count` + from + w.String() + `
			 GROUP BY 1
			 ORDER BY 1`
		default:
			columns = []string{"period", "count"}
			stmt = `SELECT to_char(v.created_at, 'YYYY-MM-DD') AS period, COUNT(*) AS count` + from + w.String() + `
			 GROUP BY 1
			 ORDER BY 1`
		}

	case StatsByLocation:
		columns = []string{"parking_loc", "count"}
		stmt = `SELECT p.parking_loc AS parking_loc, COUNT(*) AS count` + from + `
		  JOIN tb_parking p ON p.parking_idx = d.parking_idx
		` + w.String() + `
		 GROUP BY p.parking_loc
		 ORDER BY COUNT(*) DESC`

	case StatsByHour:
		columns = []string{"hour", "count"}
		stmt = `SELECT CAST(EXTRACT(HOUR FROM v.created_at) AS INTEGER) AS hour, COUNT(*) AS count` + from + w.String() + `
		 GROUP BY 1
		 ORDER BY 1`

	case StatsByWeekday:
		columns = []string{"weekday", "count"}
		stmt = `SELECT CASE CAST(EXTRACT(DOW FROM v.created_at) AS INTEGER)
		                 WHEN 0 THEN 'Sunday'
		                 WHEN 1 THEN 'Monday'
		                 WHEN 2 THEN 'Tuesday'
		                 WHEN 3 THEN 'Wednesday'
		                 WHEN 4 THEN 'Thursday'
		                 WHEN 5 THEN 'Friday'
		                 WHEN 6 THEN 'Saturday'
		               END AS weekday,
		               COUNT(*) AS count` + from + w.String() + `
		 GROUP BY CAST(EXTRACT(DOW FROM v.created_at) AS INTEGER)
		 ORDER BY CAST(EXTRACT(DOW FROM v.created_at) AS INTEGER)`

	default:
		return StatsTable{}, fmt.Errorf("unknown stats kind %q", kind)
	}

	rows, err := r.db.Query(ctx, stmt, w.args...)
	if err != nil {
		return StatsTable{}, fmt.Errorf("stats %s: %w", kind, err)
	}
	return StatsTable{Columns: columns, Rows: rows}, nil
}
