package league

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypePublic  Type = "public"
	TypePrivate Type = "private"
)

func (t Type) Valid() bool {
	return t == TypePublic || t == TypePrivate
}

// League groups users for standings. Private leagues carry a unique join
// code; TeamRestriction optionally pins which constructor rosters must use.
type League struct {
	ID              string
	Name            string
	Type            Type
	TeamRestriction string
	Code            string
	CreatorID       string
	CreatedAt       time.Time
}

func (l League) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("league name is required")
	}
	if !l.Type.Valid() {
		return fmt.Errorf("invalid league type %q", l.Type)
	}
	if l.Type == TypePrivate && l.Code == "" {
		return fmt.Errorf("private league requires a join code")
	}
	if l.Type == TypePublic && l.Code != "" {
		return fmt.Errorf("public league cannot have a join code")
	}
	return nil
}

// Membership records that a user joined a league and, optionally, which of
// their fantasy teams competes in it.
type Membership struct {
	UserID   string
	LeagueID string
	TeamID   string
	JoinedAt time.Time
}

// MembershipID is deterministic so a second join of the same user lands on
// the same document.
func MembershipID(leagueID, userID string) string {
	return leagueID + "_" + userID
}
