package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/repository"
)

// exportNames are the Korean file names the operators expect in downloads.
var exportNames = map[repository.StatsKind]string{
	repository.StatsByType:     "위반유형별통계",
	repository.StatsByDate:     "날짜별통계",
	repository.StatsByLocation: "위치별통계",
	repository.StatsByHour:     "시간대별통계",
	repository.StatsByWeekday:  "요일별통계",
}

type StatsHandler struct {
	stats  StatsStore
	lots   ParkingStore
	logger logger.Logger
	now    func() time.Time
}

func NewStatsHandler(stats StatsStore, lots ParkingStore, logger logger.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		lots:   lots,
		logger: logger.WithField("handler", "stats"),
		now:    time.Now,
	}
}

// Breakdown handles GET /api/stats/:kind.
func (h *StatsHandler) Breakdown(c *gin.Context) {
	kind, ok := repository.ParseStatsKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown statistic"})
		return
	}

	table, err := h.table(c, kind)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table.Rows)
}

// ExportCSV handles GET /api/export/csv?type=. The body starts with a UTF-8
// BOM so spreadsheet tools pick the right encoding for Hangul.
func (h *StatsHandler) ExportCSV(c *gin.Context) {
	kind, ok := repository.ParseStatsKind(c.DefaultQuery("type", string(repository.StatsByType)))
	if !ok {
		writeError(c, h.logger, badRequest("invalid export type"))
		return
	}

	table, err := h.table(c, kind)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	body, err := encodeCSV(table)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	prefix := ""
	if idx := optionalInt(c, "parking_idx"); idx != nil {
		// A missing lot only drops the prefix.
		if loc, err := h.lots.Location(c.Request.Context(), *idx); err == nil && loc != "" {
			prefix = loc + "_"
		} else if err != nil {
			h.logger.Debugf("No location for parking %d: %v", *idx, err)
		}
	}
	filename := fmt.Sprintf("%s%s_%s.csv", prefix, exportNames[kind], h.now().Format("20060102"))

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

func (h *StatsHandler) table(c *gin.Context, kind repository.StatsKind) (repository.StatsTable, error) {
	rng, err := repository.ParseRange(
		strings.TrimSpace(c.Query("date")),
		strings.TrimSpace(c.Query("from")),
		strings.TrimSpace(c.Query("to")),
	)
	if err != nil {
		return repository.StatsTable{}, badRequest(err.Error())
	}

	group := c.DefaultQuery("group", "day")
	switch group {
	case "day", "week", "month":
	default:
		return repository.StatsTable{}, badRequest("group must be day, week or month")
	}

	return h.stats.Table(c.Request.Context(), kind, repository.StatsFilter{
		Range:      rng,
		ParkingIdx: optionalInt(c, "parking_idx"),
		Group:      group,
	})
}

func encodeCSV(table repository.StatsTable) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, err
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = cell(row, col)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(row database.Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}
