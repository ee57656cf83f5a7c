package dashboard

import (
	"sync"

	"parkwatch/internal/signals"
)

// Selection is the process-wide active parking lot and district. Every Set
// emits the companion signal after the new value is stored, so handlers that
// read the selection see the new value.
type Selection struct {
	bus *signals.Bus

	mu       sync.RWMutex
	parking  string
	district signals.District
}

func NewSelection(bus *signals.Bus) *Selection {
	return &Selection{bus: bus}
}

func (s *Selection) Parking() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parking
}

// SetParking stores the active parking id. An empty id selects all lots.
func (s *Selection) SetParking(parkingIdx string) {
	s.mu.Lock()
	s.parking = parkingIdx
	s.mu.Unlock()

	signals.Emit(s.bus, signals.ParkingChange, parkingIdx)
}

func (s *Selection) District() signals.District {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.district
}

func (s *Selection) SetDistrict(d signals.District) {
	s.mu.Lock()
	s.district = d
	s.mu.Unlock()

	signals.Emit(s.bus, signals.DistrictChange, d)
}
