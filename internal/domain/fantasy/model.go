package fantasy

import (
	"fmt"
	"time"
)

// Team is a user's fantasy roster: five drivers plus one constructor.
// Price is fixed at creation; Points is a cache refreshed by propagation.
type Team struct {
	ID            string
	UserID        string
	Name          string
	DriverIDs     []string
	ConstructorID string
	Price         int64
	Points        int64
	CreatedAt     time.Time
}

func (t Team) ValidateBasic() error {
	if t.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("fantasy team name is required")
	}
	if t.ConstructorID == "" {
		return fmt.Errorf("constructor is required")
	}
	return nil
}

func (t Team) OwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}
