package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pollstack/contexts/engagement/poll-engine/adapters/memory"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
)

func newSubmitUseCase(store *memory.Store) SubmitUseCase {
	return SubmitUseCase{
		Polls: store,
		Votes: store,
		Identity: identity.Resolver{
			Clock: store,
			IDGen: store,
		},
		Clock: store,
		IDGen: store,
	}
}

func choiceCommand(session identity.Session) SubmitSingleChoiceCommand {
	return SubmitSingleChoiceCommand{
		PagePath:    "/survey-results/holistic-protection",
		PollIndex:   0,
		Question:    "Rank the importance of updating CSR sediment standards",
		Options:     []string{"Very important", "Somewhat important", "Not important"},
		OptionIndex: 1,
		Session:     session,
	}
}

func TestSubmitSingleChoiceStoresVote(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	result, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(identity.Session{UserID: "user-1"}))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.PollID == "" {
		t.Fatalf("expected a poll id")
	}
	if result.Scheme != entities.SchemeAuthenticated {
		t.Fatalf("expected authenticated scheme, got %q", result.Scheme)
	}

	votes, err := store.ListChoiceVotes(context.Background(), result.PollID)
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected 1 stored vote, got %d", len(votes))
	}
	if votes[0].OptionIndex != 1 || votes[0].UserID != "user-1" {
		t.Fatalf("unexpected stored vote %+v", votes[0])
	}
}

func TestSubmitSingleChoiceReusesPollID(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	first, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(identity.Session{UserID: "user-1"}))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(identity.Session{UserID: "user-2"}))
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if first.PollID != second.PollID {
		t.Fatalf("same page and index must map to one poll, got %q and %q", first.PollID, second.PollID)
	}
}

func TestSubmitSingleChoiceRejectsOutOfRangeIndex(t *testing.T) {
	useCase := newSubmitUseCase(memory.NewStore(nil))
	cmd := choiceCommand(identity.Session{UserID: "user-1"})
	cmd.OptionIndex = 3

	_, err := useCase.SubmitSingleChoice(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrOptionIndexOutOfRange) {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
}

func TestSubmitSingleChoiceRequiresOtherText(t *testing.T) {
	useCase := newSubmitUseCase(memory.NewStore(nil))
	cmd := choiceCommand(identity.Session{UserID: "user-1"})
	cmd.Options = []string{"Toxicity", "Bioavailability", "Other (please specify)"}
	cmd.OptionIndex = 2
	cmd.OtherText = "   "

	_, err := useCase.SubmitSingleChoice(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrOtherTextRequired) {
		t.Fatalf("expected other-text error, got %v", err)
	}
}

func TestSubmitSingleChoiceRequiresSessionOnSurveyPages(t *testing.T) {
	useCase := newSubmitUseCase(memory.NewStore(nil))

	_, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(identity.Session{}))
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSubmitSingleChoiceAuthenticatedReplaces(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)
	session := identity.Session{UserID: "user-1"}

	first := choiceCommand(session)
	first.OptionIndex = 0
	result, err := useCase.SubmitSingleChoice(context.Background(), first)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	second := choiceCommand(session)
	second.OptionIndex = 2
	if _, err := useCase.SubmitSingleChoice(context.Background(), second); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	votes, _ := store.ListChoiceVotes(context.Background(), result.PollID)
	if len(votes) != 1 {
		t.Fatalf("resubmission must replace, got %d rows", len(votes))
	}
	if votes[0].OptionIndex != 2 {
		t.Fatalf("expected the latest choice to win, got option %d", votes[0].OptionIndex)
	}
}

func TestSubmitSingleChoiceAnonymousAppends(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	cmd := choiceCommand(identity.Session{})
	cmd.PagePath = "/cew-polls/holistic-protection"

	var pollID string
	for i := 0; i < 3; i++ {
		result, err := useCase.SubmitSingleChoice(context.Background(), cmd)
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		pollID = result.PollID
		if result.Scheme != entities.SchemeAnonymous {
			t.Fatalf("expected anonymous scheme, got %q", result.Scheme)
		}
	}

	votes, _ := store.ListChoiceVotes(context.Background(), pollID)
	if len(votes) != 3 {
		t.Fatalf("3 walk-up submissions must store 3 rows, got %d", len(votes))
	}
}

func TestSubmitSingleChoiceSwallowsDeleteFailure(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)
	session := identity.Session{UserID: "user-1"}

	result, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(session))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	store.SetFailDeletes(true)
	if _, err := useCase.SubmitSingleChoice(context.Background(), choiceCommand(session)); err != nil {
		t.Fatalf("resubmission must survive a failed delete, got %v", err)
	}
	store.SetFailDeletes(false)

	// The failed delete leaves the prior row behind; the insert still lands.
	votes, _ := store.ListChoiceVotes(context.Background(), result.PollID)
	if len(votes) != 2 {
		t.Fatalf("expected 2 rows after swallowed delete, got %d", len(votes))
	}
}

func TestSubmitRankingRequiresBijection(t *testing.T) {
	useCase := newSubmitUseCase(memory.NewStore(nil))
	base := SubmitRankingCommand{
		PagePath:  "/survey-results/prioritization",
		PollIndex: 0,
		Question:  "Rank the four actions below",
		Options:   []string{"A", "B", "C"},
		Session:   identity.Session{UserID: "user-1"},
	}

	cases := []struct {
		name     string
		rankings []entities.Ranking
	}{
		{"missing option", []entities.Ranking{{OptionIndex: 0, Rank: 1}, {OptionIndex: 1, Rank: 2}}},
		{"duplicate rank", []entities.Ranking{{OptionIndex: 0, Rank: 1}, {OptionIndex: 1, Rank: 1}, {OptionIndex: 2, Rank: 3}}},
		{"duplicate option", []entities.Ranking{{OptionIndex: 0, Rank: 1}, {OptionIndex: 0, Rank: 2}, {OptionIndex: 2, Rank: 3}}},
		{"rank out of range", []entities.Ranking{{OptionIndex: 0, Rank: 1}, {OptionIndex: 1, Rank: 2}, {OptionIndex: 2, Rank: 4}}},
		{"option out of range", []entities.Ranking{{OptionIndex: 0, Rank: 1}, {OptionIndex: 1, Rank: 2}, {OptionIndex: 3, Rank: 3}}},
	}
	for _, tc := range cases {
		cmd := base
		cmd.Rankings = tc.rankings
		if _, err := useCase.SubmitRanking(context.Background(), cmd); !errors.Is(err, domainerrors.ErrRankingNotBijection) {
			t.Fatalf("%s: expected bijection error, got %v", tc.name, err)
		}
	}
}

func TestSubmitRankingStoresOneRowPerOption(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	result, err := useCase.SubmitRanking(context.Background(), SubmitRankingCommand{
		PagePath:  "/survey-results/prioritization",
		PollIndex: 1,
		Question:  "Of the four options below, what focus will provide greatest value",
		Options:   []string{"A", "B", "C"},
		Rankings: []entities.Ranking{
			{OptionIndex: 0, Rank: 2},
			{OptionIndex: 1, Rank: 1},
			{OptionIndex: 2, Rank: 3},
		},
		Session: identity.Session{UserID: "user-1"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	votes, _ := store.ListRankingVotes(context.Background(), result.PollID)
	if len(votes) != 3 {
		t.Fatalf("expected 3 ranking rows, got %d", len(votes))
	}
	for _, vote := range votes {
		if vote.UserID != "user-1" {
			t.Fatalf("all rows must share the token, got %q", vote.UserID)
		}
	}
}

func TestSubmitWordcloudValidation(t *testing.T) {
	useCase := newSubmitUseCase(memory.NewStore(nil))
	base := SubmitWordcloudCommand{
		PagePath:  "/cew-polls/prioritization",
		PollIndex: 2,
		Question:  "Overall, what is the greatest constraint",
		Session:   identity.Session{},
	}

	cases := []struct {
		name  string
		words []string
		want  error
	}{
		{"empty", nil, domainerrors.ErrNoWords},
		{"too many", []string{"a", "b", "c", "d"}, domainerrors.ErrTooManyWords},
		{"blank", []string{"funding", "   "}, domainerrors.ErrBlankWord},
		{"too long", []string{strings.Repeat("x", 21)}, domainerrors.ErrWordTooLong},
		{"duplicate case-folded", []string{"Policy", "policy"}, domainerrors.ErrDuplicateWord},
	}
	for _, tc := range cases {
		cmd := base
		cmd.Words = tc.words
		if _, err := useCase.SubmitWordcloud(context.Background(), cmd); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSubmitWordcloudCountsCharactersNotBytes(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	// Six characters, twelve bytes. Must pass a six-character limit.
	result, err := useCase.SubmitWordcloud(context.Background(), SubmitWordcloudCommand{
		PagePath:  "/cew-polls/prioritization",
		PollIndex: 3,
		Question:  "Overall, what is the greatest constraint",
		WordLimit: 6,
		Words:     []string{"привет"},
		Session:   identity.Session{},
	})
	if err != nil {
		t.Fatalf("multibyte word within limit rejected: %v", err)
	}

	votes, _ := store.ListWordVotes(context.Background(), result.PollID)
	if len(votes) != 1 || votes[0].Word != "привет" {
		t.Fatalf("expected one stored word, got %v", votes)
	}

	cmd := SubmitWordcloudCommand{
		PagePath:  "/cew-polls/prioritization",
		PollIndex: 3,
		Question:  "Overall, what is the greatest constraint",
		WordLimit: 5,
		Words:     []string{"привет"},
		Session:   identity.Session{},
	}
	if _, err := useCase.SubmitWordcloud(context.Background(), cmd); !errors.Is(err, domainerrors.ErrWordTooLong) {
		t.Fatalf("expected ErrWordTooLong above the character limit, got %v", err)
	}
}

func TestSubmitWordcloudStoresFoldedWords(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	result, err := useCase.SubmitWordcloud(context.Background(), SubmitWordcloudCommand{
		PagePath:  "/cew-polls/prioritization",
		PollIndex: 2,
		Question:  "Overall, what is the greatest constraint",
		Words:     []string{"Funding", "  Policy "},
		Session:   identity.Session{},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	votes, _ := store.ListWordVotes(context.Background(), result.PollID)
	if len(votes) != 2 {
		t.Fatalf("expected 2 word rows, got %d", len(votes))
	}
	stored := map[string]bool{}
	for _, vote := range votes {
		stored[vote.Word] = true
	}
	if !stored["funding"] || !stored["policy"] {
		t.Fatalf("words must be trimmed and lowercased, got %v", stored)
	}
}

func TestSubmitWordcloudAppliesDefaults(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := newSubmitUseCase(store)

	result, err := useCase.SubmitWordcloud(context.Background(), SubmitWordcloudCommand{
		PagePath:  "/cew-polls/wiks",
		PollIndex: 0,
		Question:  "What is the biggest practical hurdle",
		Words:     []string{"capacity"},
		Session:   identity.Session{},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	poll, ok, err := store.GetPoll(context.Background(), "/cew-polls/wiks", 0)
	if err != nil || !ok {
		t.Fatalf("poll lookup failed: ok=%v err=%v", ok, err)
	}
	if poll.PollID != result.PollID {
		t.Fatalf("poll id mismatch")
	}
	if poll.MaxWords != entities.DefaultMaxWords || poll.WordLimit != entities.DefaultWordLimit {
		t.Fatalf("expected defaults %d/%d, got %d/%d",
			entities.DefaultMaxWords, entities.DefaultWordLimit, poll.MaxWords, poll.WordLimit)
	}
}
