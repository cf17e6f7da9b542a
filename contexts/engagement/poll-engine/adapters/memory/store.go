package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pollstack/contexts/engagement/poll-engine/domain/entities"
	"pollstack/contexts/engagement/poll-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory implementation of the poll registry and vote
// repository. It backs tests and local runs without Postgres and doubles as
// the module's clock and id source.
type Store struct {
	mu sync.RWMutex

	polls       map[string]entities.Poll
	pollsByKey  map[string]string
	choiceVotes map[string][]entities.ChoiceVote
	rankVotes   map[string][]entities.RankingVote
	wordVotes   map[string][]entities.WordVote

	failDeletes bool
}

func NewStore(seed []entities.Poll) *Store {
	store := &Store{
		polls:       make(map[string]entities.Poll, len(seed)),
		pollsByKey:  make(map[string]string, len(seed)),
		choiceVotes: make(map[string][]entities.ChoiceVote),
		rankVotes:   make(map[string][]entities.RankingVote),
		wordVotes:   make(map[string][]entities.WordVote),
	}
	for _, poll := range seed {
		store.polls[poll.PollID] = poll
		store.pollsByKey[pollKey(poll.PagePath, poll.PollIndex)] = poll.PollID
	}
	return store
}

// SetFailDeletes makes every Delete*Votes call fail. The replace path is
// specified to swallow delete errors, and tests need a way to reach it.
func (s *Store) SetFailDeletes(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes = fail
}

func (s *Store) GetOrCreatePoll(ctx context.Context, descriptor ports.PollDescriptor) (entities.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pollKey(descriptor.PagePath, descriptor.PollIndex)
	if pollID, ok := s.pollsByKey[key]; ok {
		return s.polls[pollID], nil
	}

	poll := entities.Poll{
		PollID:    uuid.NewString(),
		PagePath:  strings.TrimSpace(descriptor.PagePath),
		PollIndex: descriptor.PollIndex,
		Question:  strings.TrimSpace(descriptor.Question),
		Options:   append([]string(nil), descriptor.Options...),
		Kind:      descriptor.Kind,
		MaxWords:  descriptor.MaxWords,
		WordLimit: descriptor.WordLimit,
		CreatedAt: time.Now().UTC(),
	}
	s.polls[poll.PollID] = poll
	s.pollsByKey[key] = poll.PollID
	return poll, nil
}

func (s *Store) GetPoll(_ context.Context, pagePath string, pollIndex int) (entities.Poll, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollID, ok := s.pollsByKey[pollKey(pagePath, pollIndex)]
	if !ok {
		return entities.Poll{}, false, nil
	}
	return s.polls[pollID], true, nil
}

func (s *Store) ListPolls(_ context.Context) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	polls := make([]entities.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		polls = append(polls, poll)
	}
	sort.Slice(polls, func(i, j int) bool {
		if polls[i].PagePath != polls[j].PagePath {
			return polls[i].PagePath < polls[j].PagePath
		}
		return polls[i].PollIndex < polls[j].PollIndex
	})
	return polls, nil
}

func (s *Store) InsertChoiceVote(_ context.Context, vote entities.ChoiceVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choiceVotes[vote.PollID] = append(s.choiceVotes[vote.PollID], vote)
	return nil
}

func (s *Store) InsertRankingVotes(_ context.Context, votes []entities.RankingVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vote := range votes {
		s.rankVotes[vote.PollID] = append(s.rankVotes[vote.PollID], vote)
	}
	return nil
}

func (s *Store) InsertWordVotes(_ context.Context, votes []entities.WordVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vote := range votes {
		s.wordVotes[vote.PollID] = append(s.wordVotes[vote.PollID], vote)
	}
	return nil
}

func (s *Store) DeleteChoiceVotes(_ context.Context, pollID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeletes {
		return 0, errors.New("delete disabled")
	}
	kept := s.choiceVotes[pollID][:0]
	deleted := int64(0)
	for _, vote := range s.choiceVotes[pollID] {
		if vote.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, vote)
	}
	s.choiceVotes[pollID] = kept
	return deleted, nil
}

func (s *Store) DeleteRankingVotes(_ context.Context, pollID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeletes {
		return 0, errors.New("delete disabled")
	}
	kept := s.rankVotes[pollID][:0]
	deleted := int64(0)
	for _, vote := range s.rankVotes[pollID] {
		if vote.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, vote)
	}
	s.rankVotes[pollID] = kept
	return deleted, nil
}

func (s *Store) DeleteWordVotes(_ context.Context, pollID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeletes {
		return 0, errors.New("delete disabled")
	}
	kept := s.wordVotes[pollID][:0]
	deleted := int64(0)
	for _, vote := range s.wordVotes[pollID] {
		if vote.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, vote)
	}
	s.wordVotes[pollID] = kept
	return deleted, nil
}

func (s *Store) ListChoiceVotes(_ context.Context, pollID string) ([]entities.ChoiceVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ChoiceVote(nil), s.choiceVotes[pollID]...), nil
}

func (s *Store) ListRankingVotes(_ context.Context, pollID string) ([]entities.RankingVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.RankingVote(nil), s.rankVotes[pollID]...), nil
}

func (s *Store) ListWordVotes(_ context.Context, pollID string) ([]entities.WordVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.WordVote(nil), s.wordVotes[pollID]...), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func pollKey(pagePath string, pollIndex int) string {
	return strings.TrimSpace(pagePath) + "#" + strconv.Itoa(pollIndex)
}
