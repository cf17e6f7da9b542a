package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	application "pollstack/contexts/engagement/poll-engine/application"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
	"pollstack/contexts/engagement/poll-engine/ports"
)

// SubmitSingleChoiceCommand is the write-model input for a single-choice vote.
type SubmitSingleChoiceCommand struct {
	PagePath    string
	PollIndex   int
	Question    string
	Options     []string
	OptionIndex int
	OtherText   string
	Session     identity.Session
}

type SubmitRankingCommand struct {
	PagePath  string
	PollIndex int
	Question  string
	Options   []string
	Rankings  []entities.Ranking
	Session   identity.Session
}

type SubmitWordcloudCommand struct {
	PagePath  string
	PollIndex int
	Question  string
	MaxWords  int
	WordLimit int
	Words     []string
	Session   identity.Session
}

// SubmitResult reports the stable poll id the vote landed on and the identity
// scheme it was attributed under.
type SubmitResult struct {
	PollID string
	Scheme entities.IdentityScheme
}

// SubmitUseCase orchestrates all three vote kinds through one shared pipeline:
// validate the in-memory payload, resolve the poll via the idempotent
// registry, resolve the identity scheme, then write with scheme-specific
// replace/append semantics.
type SubmitUseCase struct {
	Polls    ports.PollRegistry
	Votes    ports.VoteRepository
	Identity identity.Resolver
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc SubmitUseCase) SubmitSingleChoice(ctx context.Context, cmd SubmitSingleChoiceCommand) (SubmitResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := validateSingleChoice(cmd); err != nil {
		logger.Warn("single-choice submission rejected",
			"event", "poll_submit_choice_validation_failed",
			"module", "engagement/poll-engine",
			"layer", "application",
			"page_path", cmd.PagePath,
			"poll_index", cmd.PollIndex,
			"option_index", cmd.OptionIndex,
			"error", err.Error(),
		)
		return SubmitResult{}, err
	}

	poll, id, err := uc.resolve(ctx, ports.PollDescriptor{
		PagePath:  strings.TrimSpace(cmd.PagePath),
		PollIndex: cmd.PollIndex,
		Question:  strings.TrimSpace(cmd.Question),
		Options:   cmd.Options,
		Kind:      entities.PollKindSingleChoice,
	}, cmd.Session)
	if err != nil {
		return SubmitResult{}, err
	}

	otherText := ""
	if isOtherOption(cmd.Options[cmd.OptionIndex]) {
		otherText = strings.TrimSpace(cmd.OtherText)
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	vote := entities.ChoiceVote{
		VoteID:      voteID,
		PollID:      poll.PollID,
		UserID:      id.Token,
		OptionIndex: cmd.OptionIndex,
		OtherText:   otherText,
		VotedAt:     uc.now(),
	}

	err = uc.persist(ctx, poll, id,
		func(ctx context.Context) (int64, error) {
			return uc.Votes.DeleteChoiceVotes(ctx, poll.PollID, id.Token)
		},
		func(ctx context.Context) error {
			return uc.Votes.InsertChoiceVote(ctx, vote)
		},
	)
	if err != nil {
		return SubmitResult{}, err
	}

	logger.Info("single-choice vote stored",
		"event", "poll_submit_choice_stored",
		"module", "engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"scheme", string(id.Scheme),
		"option_index", cmd.OptionIndex,
	)
	return SubmitResult{PollID: poll.PollID, Scheme: id.Scheme}, nil
}

func (uc SubmitUseCase) SubmitRanking(ctx context.Context, cmd SubmitRankingCommand) (SubmitResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := validateRanking(cmd); err != nil {
		logger.Warn("ranking submission rejected",
			"event", "poll_submit_ranking_validation_failed",
			"module", "engagement/poll-engine",
			"layer", "application",
			"page_path", cmd.PagePath,
			"poll_index", cmd.PollIndex,
			"rankings", len(cmd.Rankings),
			"error", err.Error(),
		)
		return SubmitResult{}, err
	}

	poll, id, err := uc.resolve(ctx, ports.PollDescriptor{
		PagePath:  strings.TrimSpace(cmd.PagePath),
		PollIndex: cmd.PollIndex,
		Question:  strings.TrimSpace(cmd.Question),
		Options:   cmd.Options,
		Kind:      entities.PollKindRanking,
	}, cmd.Session)
	if err != nil {
		return SubmitResult{}, err
	}

	// One row per ranked option, all sharing the token and timestamp. The
	// bijection was already validated against the whole in-memory payload.
	votedAt := uc.now()
	votes := make([]entities.RankingVote, 0, len(cmd.Rankings))
	for _, ranking := range cmd.Rankings {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SubmitResult{}, err
		}
		votes = append(votes, entities.RankingVote{
			VoteID:      voteID,
			PollID:      poll.PollID,
			UserID:      id.Token,
			OptionIndex: ranking.OptionIndex,
			Rank:        ranking.Rank,
			VotedAt:     votedAt,
		})
	}

	err = uc.persist(ctx, poll, id,
		func(ctx context.Context) (int64, error) {
			return uc.Votes.DeleteRankingVotes(ctx, poll.PollID, id.Token)
		},
		func(ctx context.Context) error {
			return uc.Votes.InsertRankingVotes(ctx, votes)
		},
	)
	if err != nil {
		return SubmitResult{}, err
	}

	logger.Info("ranking vote stored",
		"event", "poll_submit_ranking_stored",
		"module", "engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"scheme", string(id.Scheme),
		"options_ranked", len(votes),
	)
	return SubmitResult{PollID: poll.PollID, Scheme: id.Scheme}, nil
}

func (uc SubmitUseCase) SubmitWordcloud(ctx context.Context, cmd SubmitWordcloudCommand) (SubmitResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	maxWords := cmd.MaxWords
	if maxWords <= 0 {
		maxWords = entities.DefaultMaxWords
	}
	wordLimit := cmd.WordLimit
	if wordLimit <= 0 {
		wordLimit = entities.DefaultWordLimit
	}

	words, err := normalizeWords(cmd.Words, maxWords, wordLimit)
	if err != nil {
		logger.Warn("wordcloud submission rejected",
			"event", "poll_submit_wordcloud_validation_failed",
			"module", "engagement/poll-engine",
			"layer", "application",
			"page_path", cmd.PagePath,
			"poll_index", cmd.PollIndex,
			"words", len(cmd.Words),
			"error", err.Error(),
		)
		return SubmitResult{}, err
	}

	poll, id, err := uc.resolve(ctx, ports.PollDescriptor{
		PagePath:  strings.TrimSpace(cmd.PagePath),
		PollIndex: cmd.PollIndex,
		Question:  strings.TrimSpace(cmd.Question),
		Kind:      entities.PollKindWordcloud,
		MaxWords:  maxWords,
		WordLimit: wordLimit,
	}, cmd.Session)
	if err != nil {
		return SubmitResult{}, err
	}

	votedAt := uc.now()
	votes := make([]entities.WordVote, 0, len(words))
	for _, word := range words {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SubmitResult{}, err
		}
		votes = append(votes, entities.WordVote{
			VoteID:  voteID,
			PollID:  poll.PollID,
			UserID:  id.Token,
			Word:    word,
			VotedAt: votedAt,
		})
	}

	err = uc.persist(ctx, poll, id,
		func(ctx context.Context) (int64, error) {
			return uc.Votes.DeleteWordVotes(ctx, poll.PollID, id.Token)
		},
		func(ctx context.Context) error {
			return uc.Votes.InsertWordVotes(ctx, votes)
		},
	)
	if err != nil {
		return SubmitResult{}, err
	}

	logger.Info("wordcloud vote stored",
		"event", "poll_submit_wordcloud_stored",
		"module", "engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"scheme", string(id.Scheme),
		"words", len(votes),
	)
	return SubmitResult{PollID: poll.PollID, Scheme: id.Scheme}, nil
}

// resolve runs the shared registry+identity steps of every submission.
func (uc SubmitUseCase) resolve(
	ctx context.Context,
	descriptor ports.PollDescriptor,
	session identity.Session,
) (entities.Poll, entities.Identity, error) {
	poll, err := uc.Polls.GetOrCreatePoll(ctx, descriptor)
	if err != nil {
		return entities.Poll{}, entities.Identity{}, err
	}
	id, err := uc.Identity.Resolve(ctx, descriptor.PagePath, session)
	if err != nil {
		return entities.Poll{}, entities.Identity{}, err
	}
	return poll, id, nil
}

// persist applies the scheme-specific write fork. Authenticated identities
// replace: prior rows for (poll, token) are deleted first, and a failed delete
// is logged and swallowed rather than blocking the resubmission. The insert
// itself is always fatal on error.
func (uc SubmitUseCase) persist(
	ctx context.Context,
	poll entities.Poll,
	id entities.Identity,
	deleteExisting func(context.Context) (int64, error),
	insert func(context.Context) error,
) error {
	logger := application.ResolveLogger(uc.Logger)
	if id.Replace {
		deleted, err := deleteExisting(ctx)
		if err != nil {
			logger.Warn("existing vote delete failed; continuing with insert",
				"event", "poll_submit_replace_delete_failed",
				"module", "engagement/poll-engine",
				"layer", "application",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
		} else if deleted > 0 {
			logger.Info("replaced prior vote rows",
				"event", "poll_submit_replace_deleted",
				"module", "engagement/poll-engine",
				"layer", "application",
				"poll_id", poll.PollID,
				"rows", deleted,
			)
		}
	}
	if err := insert(ctx); err != nil {
		logger.Error("vote insert failed",
			"event", "poll_submit_insert_failed",
			"module", "engagement/poll-engine",
			"layer", "application",
			"poll_id", poll.PollID,
			"scheme", string(id.Scheme),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (uc SubmitUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func validateSingleChoice(cmd SubmitSingleChoiceCommand) error {
	if strings.TrimSpace(cmd.PagePath) == "" || strings.TrimSpace(cmd.Question) == "" {
		return domainerrors.ErrInvalidSubmission
	}
	if len(cmd.Options) == 0 {
		return domainerrors.ErrInvalidSubmission
	}
	if cmd.OptionIndex < 0 || cmd.OptionIndex >= len(cmd.Options) {
		return fmt.Errorf("%w: index %d, %d options", domainerrors.ErrOptionIndexOutOfRange, cmd.OptionIndex, len(cmd.Options))
	}
	if isOtherOption(cmd.Options[cmd.OptionIndex]) && strings.TrimSpace(cmd.OtherText) == "" {
		return domainerrors.ErrOtherTextRequired
	}
	return nil
}

func validateRanking(cmd SubmitRankingCommand) error {
	if strings.TrimSpace(cmd.PagePath) == "" || strings.TrimSpace(cmd.Question) == "" {
		return domainerrors.ErrInvalidSubmission
	}
	optionCount := len(cmd.Options)
	if optionCount == 0 || len(cmd.Rankings) != optionCount {
		return fmt.Errorf("%w: %d rankings for %d options", domainerrors.ErrRankingNotBijection, len(cmd.Rankings), optionCount)
	}

	seenOptions := make(map[int]bool, optionCount)
	seenRanks := make(map[int]bool, optionCount)
	for _, ranking := range cmd.Rankings {
		if ranking.OptionIndex < 0 || ranking.OptionIndex >= optionCount {
			return fmt.Errorf("%w: option index %d out of range", domainerrors.ErrRankingNotBijection, ranking.OptionIndex)
		}
		if ranking.Rank < 1 || ranking.Rank > optionCount {
			return fmt.Errorf("%w: rank %d out of range", domainerrors.ErrRankingNotBijection, ranking.Rank)
		}
		if seenOptions[ranking.OptionIndex] {
			return fmt.Errorf("%w: option index %d ranked twice", domainerrors.ErrRankingNotBijection, ranking.OptionIndex)
		}
		if seenRanks[ranking.Rank] {
			return fmt.Errorf("%w: rank %d assigned twice", domainerrors.ErrRankingNotBijection, ranking.Rank)
		}
		seenOptions[ranking.OptionIndex] = true
		seenRanks[ranking.Rank] = true
	}
	return nil
}

// normalizeWords validates the whole word set in memory before any row is
// written: count bounds, per-word length, and uniqueness after case-folding.
// Case-variant duplicates are rejected, not silently collapsed.
func normalizeWords(words []string, maxWords int, wordLimit int) ([]string, error) {
	if len(words) == 0 {
		return nil, domainerrors.ErrNoWords
	}
	if len(words) > maxWords {
		return nil, fmt.Errorf("%w: maximum %d words allowed", domainerrors.ErrTooManyWords, maxWords)
	}

	normalized := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, raw := range words {
		word := strings.ToLower(strings.TrimSpace(raw))
		if word == "" {
			return nil, domainerrors.ErrBlankWord
		}
		// The limit counts characters, not bytes.
		if utf8.RuneCountInString(word) > wordLimit {
			return nil, fmt.Errorf("%w: %q, limit %d characters", domainerrors.ErrWordTooLong, raw, wordLimit)
		}
		if seen[word] {
			return nil, fmt.Errorf("%w: %q", domainerrors.ErrDuplicateWord, word)
		}
		seen[word] = true
		normalized = append(normalized, word)
	}
	return normalized, nil
}

// isOtherOption reports whether an option label marks a write-in choice.
func isOtherOption(label string) bool {
	return strings.Contains(strings.ToLower(label), "other")
}
