package league

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeLive Mode = "live"
	ModeSim  Mode = "sim"
)

type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// League is a prediction-market fantasy league. Mode and cadence are fixed once active.
type League struct {
	ID               string
	Name             string
	Mode             Mode
	Cadence          Cadence
	MarketsPerPeriod int
	StartAt          time.Time
	EndAt            time.Time
	Status           Status
	PointsPolicy     string
	EscrowAddress    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Member is a league participant. Membership is owned by the league CRUD service.
type Member struct {
	LeagueID      string
	MemberID      string
	WalletAddress string
	JoinedAt      time.Time
}

func (l League) IsSimulated() bool {
	return l.Mode == ModeSim
}

func (l League) IsActive() bool {
	return l.Status == StatusActive
}

func (l League) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("league id is required")
	}
	switch l.Mode {
	case ModeLive, ModeSim:
	default:
		return fmt.Errorf("invalid league mode %q", l.Mode)
	}
	if _, err := PeriodDuration(l.Cadence); err != nil {
		return err
	}
	if l.MarketsPerPeriod < 1 {
		return fmt.Errorf("markets per period must be >= 1")
	}
	if l.StartAt.IsZero() {
		return fmt.Errorf("league start time is required")
	}
	switch l.Status {
	case StatusOpen, StatusActive, StatusCompleted:
	default:
		return fmt.Errorf("invalid league status %q", l.Status)
	}

	return nil
}

// FindMember returns the member with memberID.
func FindMember(members []Member, memberID string) (Member, bool) {
	for _, m := range members {
		if m.MemberID == memberID {
			return m, true
		}
	}
	return Member{}, false
}

// FindMemberByWallet matches wallet addresses case-insensitively.
func FindMemberByWallet(members []Member, wallet string) (Member, bool) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return Member{}, false
	}
	for _, m := range members {
		if strings.EqualFold(m.WalletAddress, wallet) {
			return m, true
		}
	}
	return Member{}, false
}
