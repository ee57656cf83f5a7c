// Package domain holds the entities shared by the REST handlers, the
// repositories and the dashboard client.
package domain

import "time"

const (
	SpaceGeneral  = "general"
	SpaceDisabled = "disabled"

	RoleAdmin = "admin"
)

type Admin struct {
	AdminID        string    `json:"admin_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Role           string    `json:"role"`
	HashedPassword string    `json:"-"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Alert is a violation notification addressed to one admin.
type Alert struct {
	AlertIdx     int64      `json:"alert_idx"`
	ViolationIdx *int64     `json:"violation_idx"`
	AlertType    string     `json:"alert_type"`
	AlertMsg     string     `json:"alert_msg"`
	SentAt       time.Time  `json:"sent_at"`
	IsSuccess    bool       `json:"is_success"`
	AdminID      string     `json:"admin_id"`
	ReadAt       *time.Time `json:"read_at"`
	AdminStatus  *string    `json:"admin_status"`
	AdminContent *string    `json:"admin_content"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

// AlertPatch is a partial alert update. Nil fields are left unchanged.
type AlertPatch struct {
	Read         bool    `json:"read,omitempty"`
	AdminStatus  *string `json:"admin_status,omitempty"`
	AdminContent *string `json:"admin_content,omitempty"`
}

func (p AlertPatch) Empty() bool {
	return !p.Read && p.AdminStatus == nil && p.AdminContent == nil
}

// Processed reports whether the patch records an admin decision, which stamps
// processed_at.
func (p AlertPatch) Processed() bool {
	return (p.AdminStatus != nil && *p.AdminStatus != "") ||
		(p.AdminContent != nil && *p.AdminContent != "")
}

type ParkingLot struct {
	ParkingIdx int64  `json:"parking_idx"`
	ParkingLoc string `json:"parking_loc"`
}

type ParkingSpace struct {
	SpaceID    int64   `json:"space_id"`
	SpaceType  string  `json:"space_type"`
	IsOccupied bool    `json:"is_occupied"`
	VeNumber   *string `json:"ve_number"`
}

type Occupancy struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
}

type Summary struct {
	DisabledParking Occupancy `json:"disabledParking"`
	GeneralParking  Occupancy `json:"generalParking"`
	TodayViolations int64     `json:"todayViolations"`
}

// LotSummary is the occupancy of one parking lot.
type LotSummary struct {
	ParkingIdx        int64   `json:"parking_idx"`
	ParkingLoc        string  `json:"parking_loc"`
	TotalGeneral      int64   `json:"total_general"`
	OccupiedGeneral   int64   `json:"occupied_general"`
	TotalDisabled     int64   `json:"total_disabled"`
	OccupiedDisabled  int64   `json:"occupied_disabled"`
	AvailableGeneral  int64   `json:"available_general"`
	AvailableDisabled int64   `json:"available_disabled"`
	OccupiedTotal     int64   `json:"occupied_total"`
	AvailableTotal    int64   `json:"available_total"`
	Utilization       float64 `json:"utilization"`
}

// NewLotSummary derives the availability figures from the raw counts.
func NewLotSummary(idx int64, loc string, totalGeneral, occupiedGeneral, totalDisabled, occupiedDisabled int64) LotSummary {
	s := LotSummary{
		ParkingIdx:        idx,
		ParkingLoc:        loc,
		TotalGeneral:      totalGeneral,
		OccupiedGeneral:   occupiedGeneral,
		TotalDisabled:     totalDisabled,
		OccupiedDisabled:  occupiedDisabled,
		AvailableGeneral:  max(0, totalGeneral-occupiedGeneral),
		AvailableDisabled: max(0, totalDisabled-occupiedDisabled),
		OccupiedTotal:     occupiedGeneral + occupiedDisabled,
	}
	s.AvailableTotal = s.AvailableGeneral + s.AvailableDisabled
	if total := totalGeneral + totalDisabled; total > 0 {
		s.Utilization = float64(s.OccupiedTotal) / float64(total)
	}
	return s
}

type ParkingLog struct {
	LogIdx   int64      `json:"log_idx"`
	VeNumber string     `json:"ve_number"`
	VeImg    *string    `json:"ve_img,omitempty"`
	SpaceID  int64      `json:"space_id"`
	EntryAt  time.Time  `json:"entry_at"`
	ExitAt   *time.Time `json:"exit_at"`
}

type RecentViolation struct {
	ViolationIdx  int64     `json:"violation_idx"`
	VeNumber      string    `json:"ve_number"`
	ParkingLoc    string    `json:"parking_loc"`
	ViolationType string    `json:"violation_type"`
	ViolationDate time.Time `json:"violation_date"`
	AdminStatus   *string   `json:"admin_status"`
}

type Violation struct {
	ViolationIdx  int64     `json:"violation_idx"`
	ViolationType string    `json:"violation_type"`
	ViolationDate time.Time `json:"violation_date"`
	VeNumber      string    `json:"ve_number"`
	ParkingLoc    string    `json:"parking_loc"`
	CameraLoc     string    `json:"camera_loc"`
	VideoURL      string    `json:"video_url,omitempty"`
}

type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	PageSize    int64 `json:"pageSize,omitempty"`
}

// NewPagination computes the page count; an empty result still has one page.
func NewPagination(totalItems, page, limit int64) Pagination {
	pages := int64(1)
	if limit > 0 && totalItems > 0 {
		pages = (totalItems + limit - 1) / limit
	}
	return Pagination{TotalItems: totalItems, TotalPages: pages, CurrentPage: page, PageSize: limit}
}

type ParkingLogPage struct {
	Items      []ParkingLog `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

type ViolationPage struct {
	Data       []Violation `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Vehicle struct {
	PlateNumber string `json:"plateNumber"`
	ImageURL    string `json:"imageUrl"`
}
