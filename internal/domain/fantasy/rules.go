package fantasy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
)

var (
	ErrInvalidRosterShape = errors.New("invalid roster shape")
	ErrBudgetExceeded     = errors.New("budget cap exceeded")
)

// Rules stores fantasy roster validation parameters.
type Rules struct {
	RosterSize int
	BudgetCap  int64
}

func DefaultRules() Rules {
	return Rules{
		RosterSize: 5,
		BudgetCap:  100_000_000,
	}
}

// ValidateShape checks the roster composition before anything is priced.
func ValidateShape(name string, driverIDs []string, constructorID string, rules Rules) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRosterShape)
	}
	if strings.TrimSpace(constructorID) == "" {
		return fmt.Errorf("%w: constructor is required", ErrInvalidRosterShape)
	}
	if len(driverIDs) != rules.RosterSize {
		return fmt.Errorf("%w: expected %d drivers, got %d", ErrInvalidRosterShape, rules.RosterSize, len(driverIDs))
	}

	seen := make(map[string]struct{}, len(driverIDs))
	for _, id := range driverIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: driver id is required", ErrInvalidRosterShape)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate driver %s", ErrInvalidRosterShape, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// TotalPrice sums driver prices and the constructor price.
func TotalPrice(drivers []driver.Driver, team constructor.Team) int64 {
	total := team.Price
	for _, d := range drivers {
		total += d.Price
	}
	return total
}

// ValidateBudget accepts totals up to and including the cap.
func ValidateBudget(total int64, rules Rules) error {
	if total > rules.BudgetCap {
		return fmt.Errorf("%w: cap=%d used=%d", ErrBudgetExceeded, rules.BudgetCap, total)
	}
	return nil
}

// Score is the sum of resolved driver points plus the constructor score.
// Callers pass only what resolved; missing references contribute nothing.
func Score(drivers []driver.Driver, team *constructor.Team) int64 {
	var total int64
	for _, d := range drivers {
		total += d.Points
	}
	if team != nil {
		total += team.Score
	}
	return total
}
