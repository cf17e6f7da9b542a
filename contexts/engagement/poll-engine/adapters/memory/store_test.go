package memory

import (
	"context"
	"sync"
	"testing"

	"pollstack/contexts/engagement/poll-engine/domain/entities"
	"pollstack/contexts/engagement/poll-engine/ports"
)

func TestGetOrCreatePollIsIdempotent(t *testing.T) {
	store := NewStore(nil)
	descriptor := ports.PollDescriptor{
		PagePath:  "/survey-results/holistic-protection",
		PollIndex: 0,
		Question:  "Which pathway?",
		Options:   []string{"A", "B"},
		Kind:      entities.PollKindSingleChoice,
	}

	first, err := store.GetOrCreatePoll(context.Background(), descriptor)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// A later render with drifted wording still maps to the first poll.
	drifted := descriptor
	drifted.Question = "Which pathway matters most?"
	second, err := store.GetOrCreatePoll(context.Background(), drifted)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if first.PollID != second.PollID {
		t.Fatalf("expected one poll per (page, index), got %q and %q", first.PollID, second.PollID)
	}
	if second.Question != descriptor.Question {
		t.Fatalf("first stored wording must win, got %q", second.Question)
	}
}

func TestGetOrCreatePollConcurrentCallersShareOneID(t *testing.T) {
	store := NewStore(nil)
	descriptor := ports.PollDescriptor{
		PagePath:  "/cew-polls/prioritization",
		PollIndex: 1,
		Question:  "Rank the actions",
		Options:   []string{"A", "B", "C"},
		Kind:      entities.PollKindRanking,
	}

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(slot int) {
			defer wg.Done()
			poll, err := store.GetOrCreatePoll(context.Background(), descriptor)
			if err != nil {
				t.Errorf("caller %d failed: %v", slot, err)
				return
			}
			ids[slot] = poll.PollID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got %q, caller 0 got %q", i, ids[i], ids[0])
		}
	}
}

func TestDeleteVotesRemovesOnlyMatchingUser(t *testing.T) {
	store := NewStore(nil)
	poll, err := store.GetOrCreatePoll(context.Background(), ports.PollDescriptor{
		PagePath: "/survey-results/holistic-protection", PollIndex: 0,
		Question: "Which pathway?", Options: []string{"A", "B"},
		Kind: entities.PollKindSingleChoice,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	store.InsertChoiceVote(context.Background(), entities.ChoiceVote{VoteID: "v1", PollID: poll.PollID, UserID: "user-1", OptionIndex: 0})
	store.InsertChoiceVote(context.Background(), entities.ChoiceVote{VoteID: "v2", PollID: poll.PollID, UserID: "user-2", OptionIndex: 1})

	deleted, err := store.DeleteChoiceVotes(context.Background(), poll.PollID, "user-1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	remaining, _ := store.ListChoiceVotes(context.Background(), poll.PollID)
	if len(remaining) != 1 || remaining[0].UserID != "user-2" {
		t.Fatalf("wrong rows survived: %+v", remaining)
	}
}

func TestSetFailDeletesBlocksDeletes(t *testing.T) {
	store := NewStore(nil)
	poll, _ := store.GetOrCreatePoll(context.Background(), ports.PollDescriptor{
		PagePath: "/survey-results/holistic-protection", PollIndex: 0,
		Question: "Which pathway?", Options: []string{"A"},
		Kind: entities.PollKindSingleChoice,
	})
	store.InsertChoiceVote(context.Background(), entities.ChoiceVote{VoteID: "v1", PollID: poll.PollID, UserID: "user-1"})

	store.SetFailDeletes(true)
	if _, err := store.DeleteChoiceVotes(context.Background(), poll.PollID, "user-1"); err == nil {
		t.Fatalf("expected delete to fail")
	}

	store.SetFailDeletes(false)
	if _, err := store.DeleteChoiceVotes(context.Background(), poll.PollID, "user-1"); err != nil {
		t.Fatalf("expected delete to succeed after reset, got %v", err)
	}
}
