package entities

import "time"

type PollKind string

const (
	PollKindSingleChoice PollKind = "single_choice"
	PollKindRanking      PollKind = "ranking"
	PollKindWordcloud    PollKind = "wordcloud"
)

const (
	DefaultMaxWords  = 3
	DefaultWordLimit = 20
)

// Poll is one question rendered at a specific page and position. The
// (PagePath, PollIndex) pair is the identity key; question and option text may
// drift by copy edits after creation and the first stored wording wins.
type Poll struct {
	PollID    string
	PagePath  string
	PollIndex int
	Question  string
	Options   []string
	Kind      PollKind
	MaxWords  int
	WordLimit int
	CreatedAt time.Time
}
