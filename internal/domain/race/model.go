package race

import (
	"fmt"
	"strings"
	"time"
)

// Race holds the points awarded per driver id for one event.
type Race struct {
	ID      string
	Name    string
	Date    time.Time
	Results map[string]int64
}

func (r Race) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("race name is required")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("race date is required")
	}
	return nil
}
