package constructor

import (
	"fmt"
	"slices"
	"strings"
)

// Team is a constructor. DriverIDs is a set; Score is derived from the
// member drivers' cumulative points by the propagation sweep.
type Team struct {
	ID        string
	Name      string
	DriverIDs []string
	Score     int64
	Price     int64
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("constructor name is required")
	}
	if t.Price < 0 {
		return fmt.Errorf("constructor price must be >= 0")
	}
	seen := make(map[string]struct{}, len(t.DriverIDs))
	for _, id := range t.DriverIDs {
		if id == "" {
			return fmt.Errorf("driver id is required")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate driver %s in constructor", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (t Team) HasDriver(driverID string) bool {
	return slices.Contains(t.DriverIDs, driverID)
}

// WithoutDriver returns a copy of the driver set minus driverID.
func (t Team) WithoutDriver(driverID string) []string {
	out := make([]string, 0, len(t.DriverIDs))
	for _, id := range t.DriverIDs {
		if id != driverID {
			out = append(out, id)
		}
	}
	return out
}
