package session

import (
	"time"

	"reviewlens-backend/lib/userstore"
)

// Click is one pointer event in the session's click stream. Entries are
// appended and never mutated.
type Click struct {
	Timestamp   time.Time `json:"timestamp"`
	Target      string    `json:"target"`
	TargetID    string    `json:"targetId,omitempty"`
	TargetClass string    `json:"targetClass,omitempty"`
	TargetText  string    `json:"targetText,omitempty"`
	URL         string    `json:"url"`
	PageTitle   string    `json:"pageTitle,omitempty"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
}

// ComparisonStats is the action-specific payload attached to comparison
// snapshots.
type ComparisonStats struct {
	Entities      []string `json:"entities"`
	CommonCount   int      `json:"commonAmenities"`
	UniqueCounts  []int    `json:"uniqueAmenities"`
	AgreementRate float64  `json:"agreementRate"`
}

// Snapshot is one telemetry payload describing accumulated session state
// at a point in time.
type Snapshot struct {
	UserID              string           `json:"userId"`
	Email               string           `json:"email"`
	ReviewerVersion     int              `json:"reviewerVersion"`
	Timestamp           time.Time        `json:"timestamp"`
	Action              string           `json:"action"`
	SessionDuration     float64          `json:"sessionDuration"`
	SummaryViewDuration float64          `json:"summaryViewDuration"`
	CurrentURL          string           `json:"currentUrl"`
	PageTitle           string           `json:"pageTitle"`
	PageClicks          []Click          `json:"pageClicks,omitempty"`
	SessionStart        time.Time        `json:"sessionStart"`
	SessionEnd          *time.Time       `json:"sessionEnd,omitempty"`
	TotalClicks         int              `json:"totalClicks"`
	UniquePages         int              `json:"uniquePages"`
	Comparison          *ComparisonStats `json:"comparison,omitempty"`
}

const (
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionActivitySync = "activity_sync"
	ActionPeriodicSync = "periodic_sync"
	ActionPageVisible  = "page_visible"
	ActionPageUnload   = "page_unload"
	ActionComparison   = "hotel_comparison"
)

// state is the in-memory record of one authenticated browsing period.
// It is created on login and discarded on logout, never reused.
type state struct {
	identity    userstore.Identity
	start       time.Time
	clicks      []Click
	uniquePages map[string]struct{}
	currentURL  string
	pageTitle   string

	// dwell accumulates while the summary element is hidden again;
	// visibleSince is set while it is on screen.
	dwell        time.Duration
	visibleSince *time.Time
}
