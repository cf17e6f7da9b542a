package ports

import (
	"context"
	"time"

	"pollstack/contexts/engagement/poll-engine/domain/entities"
)

// PollDescriptor is the write-model input for the idempotent poll registry.
type PollDescriptor struct {
	PagePath  string
	PollIndex int
	Question  string
	Options   []string
	Kind      entities.PollKind
	MaxWords  int
	WordLimit int
}

// PollRegistry maps a rendered question to a stable poll record. GetOrCreate
// must be atomic under concurrent first-time creation: two simultaneous calls
// for the same (page path, poll index) return the same poll id.
type PollRegistry interface {
	GetOrCreatePoll(ctx context.Context, descriptor PollDescriptor) (entities.Poll, error)
	GetPoll(ctx context.Context, pagePath string, pollIndex int) (entities.Poll, bool, error)
	ListPolls(ctx context.Context) ([]entities.Poll, error)
}

type VoteRepository interface {
	InsertChoiceVote(ctx context.Context, vote entities.ChoiceVote) error
	InsertRankingVotes(ctx context.Context, votes []entities.RankingVote) error
	InsertWordVotes(ctx context.Context, votes []entities.WordVote) error

	DeleteChoiceVotes(ctx context.Context, pollID string, userID string) (int64, error)
	DeleteRankingVotes(ctx context.Context, pollID string, userID string) (int64, error)
	DeleteWordVotes(ctx context.Context, pollID string, userID string) (int64, error)

	ListChoiceVotes(ctx context.Context, pollID string) ([]entities.ChoiceVote, error)
	ListRankingVotes(ctx context.Context, pollID string) ([]entities.RankingVote, error)
	ListWordVotes(ctx context.Context, pollID string) ([]entities.WordVote, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
