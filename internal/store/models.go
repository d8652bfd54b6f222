package store

import "time"

type User struct {
	ID              int64
	Name            string
	Email           string
	PasswordHash    string
	Department      string
	Role            string
	IsActive        bool
	IsEmailVerified bool
	JoinedAt        time.Time
}

// UserSummary is the public projection of a user embedded in shoutout and
// comment payloads.
type UserSummary struct {
	ID         int64
	Name       string
	Email      string
	Department string
}

type Shoutout struct {
	ID        int64
	SenderID  int64
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShoutoutView is the aggregated representation of a shoutout as seen by one
// viewer: sender and recipient summaries, per-type reaction counts, the
// reaction types the viewer applied, and the comment count. All fields are
// read within a single snapshot.
type ShoutoutView struct {
	Shoutout
	Sender         UserSummary
	Recipients     []UserSummary
	ReactionCounts map[string]int
	UserReactions  []string
	CommentCount   int
}

type ShoutoutFilter struct {
	Department string
	SenderID   int64
	StartDate  string // YYYY-MM-DD, inclusive
	EndDate    string // YYYY-MM-DD, inclusive
	Skip       int
	Limit      int
}

// ReactionSummary carries counts for every reaction type plus, per type, the
// users who applied it ordered by name.
type ReactionSummary struct {
	Counts   map[string]int
	Reactors map[string][]UserSummary
}

type Comment struct {
	ID         int64
	ShoutoutID int64
	UserID     int64
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Author     UserSummary
	Mentions   []UserSummary
}

type Report struct {
	ID         int64
	ShoutoutID int64
	ReportedBy int64
	Reason     string
	Status     string
	CreatedAt  time.Time
}

type LeaderboardEntry struct {
	UserID     int64
	Name       string
	Department string
	Count      int
}

type DepartmentStat struct {
	Department string
	Count      int
}
