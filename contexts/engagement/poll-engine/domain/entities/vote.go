package entities

import "time"

type IdentityScheme string

const (
	SchemeAnonymous     IdentityScheme = "anonymous"
	SchemeAuthenticated IdentityScheme = "authenticated"
)

// Identity attributes a submission to a respondent and carries the write
// semantics of its scheme: anonymous identities append, authenticated
// identities replace their prior vote.
type Identity struct {
	Scheme  IdentityScheme
	Token   string
	Replace bool
}

type ChoiceVote struct {
	VoteID      string
	PollID      string
	UserID      string
	OptionIndex int
	OtherText   string
	VotedAt     time.Time
}

type RankingVote struct {
	VoteID      string
	PollID      string
	UserID      string
	OptionIndex int
	Rank        int
	VotedAt     time.Time
}

type WordVote struct {
	VoteID  string
	PollID  string
	UserID  string
	Word    string
	VotedAt time.Time
}

// Ranking is one (option, rank) pair of a submitted permutation.
type Ranking struct {
	OptionIndex int
	Rank        int
}
