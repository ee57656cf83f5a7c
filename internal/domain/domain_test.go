package domain

import "testing"

func TestNewLotSummary(t *testing.T) {
	s := NewLotSummary(1, "Gangnam", 10, 4, 2, 2)

	if s.AvailableGeneral != 6 || s.AvailableDisabled != 0 {
		t.Errorf("Unexpected availability %+v", s)
	}
	if s.OccupiedTotal != 6 || s.AvailableTotal != 6 {
		t.Errorf("Unexpected totals %+v", s)
	}
	if s.Utilization != 0.5 {
		t.Errorf("Expected utilization 0.5, got %v", s.Utilization)
	}
}

func TestNewLotSummary_EmptyLot(t *testing.T) {
	s := NewLotSummary(2, "Empty", 0, 0, 0, 0)
	if s.Utilization != 0 {
		t.Errorf("Expected zero utilization for an empty lot, got %v", s.Utilization)
	}
}

func TestNewLotSummary_OvercountClampsAvailability(t *testing.T) {
	s := NewLotSummary(3, "Odd", 2, 3, 0, 0)
	if s.AvailableGeneral != 0 {
		t.Errorf("Availability should not go negative, got %d", s.AvailableGeneral)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total, page, limit int64
		wantPages          int64
	}{
		{total: 0, page: 1, limit: 10, wantPages: 1},
		{total: 10, page: 1, limit: 10, wantPages: 1},
		{total: 11, page: 2, limit: 10, wantPages: 2},
		{total: 95, page: 3, limit: 20, wantPages: 5},
	}
	for _, tt := range tests {
		p := NewPagination(tt.total, tt.page, tt.limit)
		if p.TotalPages != tt.wantPages {
			t.Errorf("NewPagination(%d, %d, %d) pages = %d, want %d", tt.total, tt.page, tt.limit, p.TotalPages, tt.wantPages)
		}
	}
}

func TestAlertPatch(t *testing.T) {
	empty := ""
	status := "resolved"

	if !(AlertPatch{}).Empty() {
		t.Error("Zero patch should be empty")
	}
	if (AlertPatch{Read: true}).Processed() {
		t.Error("Marking read is not a decision")
	}
	if (AlertPatch{AdminStatus: &empty}).Processed() {
		t.Error("Blank status is not a decision")
	}
	if (AlertPatch{AdminStatus: &empty}).Empty() {
		t.Error("Blank status still updates the column")
	}
	if !(AlertPatch{AdminStatus: &status}).Processed() {
		t.Error("Status change should be processed")
	}
}
