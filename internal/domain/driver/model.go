package driver

import (
	"fmt"
	"strings"
)

// Driver is a real-world driver that fantasy rosters pick from. Points is
// the cumulative total across recorded races; Races keeps the per-race
// history keyed by race id.
type Driver struct {
	ID     string
	Name   string
	Price  int64
	Points int64
	TeamID string
	Races  map[string]int64
}

func (d Driver) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("driver name is required")
	}
	if d.Price < 0 {
		return fmt.Errorf("driver price must be >= 0")
	}
	return nil
}

func (d Driver) Assigned() bool {
	return d.TeamID != ""
}

// RacePoints returns the points recorded for raceID, if any.
func (d Driver) RacePoints(raceID string) (int64, bool) {
	p, ok := d.Races[raceID]
	return p, ok
}
