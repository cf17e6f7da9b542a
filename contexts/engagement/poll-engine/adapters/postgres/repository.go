package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pollstack/contexts/engagement/poll-engine/domain/entities"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
	"pollstack/contexts/engagement/poll-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the poll and vote tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&pollModel{},
		&choiceVoteModel{},
		&rankingVoteModel{},
		&wordVoteModel{},
	)
}

// GetOrCreatePoll inserts with ON CONFLICT DO NOTHING on the
// (page_path, poll_index) key and re-selects when another writer won the
// race, so concurrent first-time submissions converge on one poll id.
func (r *Repository) GetOrCreatePoll(ctx context.Context, descriptor ports.PollDescriptor) (entities.Poll, error) {
	row, err := pollModelFromDescriptor(descriptor)
	if err != nil {
		return entities.Poll{}, r.logError("poll_repo_encode_poll_failed", err,
			"page_path", strings.TrimSpace(descriptor.PagePath),
			"poll_index", descriptor.PollIndex,
		)
	}

	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page_path"}, {Name: "poll_index"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil && !isUniqueViolation(create.Error) {
		return entities.Poll{}, r.logError("poll_repo_get_or_create_failed", create.Error,
			"page_path", row.PagePath,
			"poll_index", row.PollIndex,
		)
	}
	if create.Error == nil && create.RowsAffected > 0 {
		return row.toEntity(), nil
	}

	var existing pollModel
	if err := r.db.WithContext(ctx).
		Where("page_path = ?", row.PagePath).
		Where("poll_index = ?", row.PollIndex).
		First(&existing).Error; err != nil {
		return entities.Poll{}, r.logError("poll_repo_load_existing_failed", err,
			"page_path", row.PagePath,
			"poll_index", row.PollIndex,
		)
	}
	return existing.toEntity(), nil
}

func (r *Repository) GetPoll(ctx context.Context, pagePath string, pollIndex int) (entities.Poll, bool, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("page_path = ?", strings.TrimSpace(pagePath)).
		Where("poll_index = ?", pollIndex).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, false, nil
		}
		return entities.Poll{}, false, r.logError("poll_repo_get_poll_failed", err,
			"page_path", strings.TrimSpace(pagePath),
			"poll_index", pollIndex,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Order("page_path ASC, poll_index ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_polls_failed", err)
	}
	polls := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		polls = append(polls, row.toEntity())
	}
	return polls, nil
}

func (r *Repository) InsertChoiceVote(ctx context.Context, vote entities.ChoiceVote) error {
	row := choiceVoteModel{
		ID:          strings.TrimSpace(vote.VoteID),
		PollID:      strings.TrimSpace(vote.PollID),
		UserID:      strings.TrimSpace(vote.UserID),
		OptionIndex: vote.OptionIndex,
		OtherText:   strings.TrimSpace(vote.OtherText),
		VotedAt:     normalizeTime(vote.VotedAt),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("poll_repo_insert_choice_vote_failed", err,
			"poll_id", row.PollID,
		)
	}
	return nil
}

func (r *Repository) InsertRankingVotes(ctx context.Context, votes []entities.RankingVote) error {
	if len(votes) == 0 {
		return nil
	}
	rows := make([]rankingVoteModel, 0, len(votes))
	for _, vote := range votes {
		rows = append(rows, rankingVoteModel{
			ID:          strings.TrimSpace(vote.VoteID),
			PollID:      strings.TrimSpace(vote.PollID),
			UserID:      strings.TrimSpace(vote.UserID),
			OptionIndex: vote.OptionIndex,
			Rank:        vote.Rank,
			VotedAt:     normalizeTime(vote.VotedAt),
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("poll_repo_insert_ranking_votes_failed", err,
			"poll_id", rows[0].PollID,
			"rows", len(rows),
		)
	}
	return nil
}

func (r *Repository) InsertWordVotes(ctx context.Context, votes []entities.WordVote) error {
	if len(votes) == 0 {
		return nil
	}
	rows := make([]wordVoteModel, 0, len(votes))
	for _, vote := range votes {
		rows = append(rows, wordVoteModel{
			ID:      strings.TrimSpace(vote.VoteID),
			PollID:  strings.TrimSpace(vote.PollID),
			UserID:  strings.TrimSpace(vote.UserID),
			Word:    strings.TrimSpace(vote.Word),
			VotedAt: normalizeTime(vote.VotedAt),
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("poll_repo_insert_word_votes_failed", err,
			"poll_id", rows[0].PollID,
			"rows", len(rows),
		)
	}
	return nil
}

func (r *Repository) DeleteChoiceVotes(ctx context.Context, pollID string, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&choiceVoteModel{})
	if result.Error != nil {
		return 0, r.logError("poll_repo_delete_choice_votes_failed", result.Error,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) DeleteRankingVotes(ctx context.Context, pollID string, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&rankingVoteModel{})
	if result.Error != nil {
		return 0, r.logError("poll_repo_delete_ranking_votes_failed", result.Error,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) DeleteWordVotes(ctx context.Context, pollID string, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&wordVoteModel{})
	if result.Error != nil {
		return 0, r.logError("poll_repo_delete_word_votes_failed", result.Error,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) ListChoiceVotes(ctx context.Context, pollID string) ([]entities.ChoiceVote, error) {
	var rows []choiceVoteModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("voted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_choice_votes_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	votes := make([]entities.ChoiceVote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, entities.ChoiceVote{
			VoteID:      row.ID,
			PollID:      row.PollID,
			UserID:      row.UserID,
			OptionIndex: row.OptionIndex,
			OtherText:   row.OtherText,
			VotedAt:     row.VotedAt.UTC(),
		})
	}
	return votes, nil
}

func (r *Repository) ListRankingVotes(ctx context.Context, pollID string) ([]entities.RankingVote, error) {
	var rows []rankingVoteModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("voted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_ranking_votes_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	votes := make([]entities.RankingVote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, entities.RankingVote{
			VoteID:      row.ID,
			PollID:      row.PollID,
			UserID:      row.UserID,
			OptionIndex: row.OptionIndex,
			Rank:        row.Rank,
			VotedAt:     row.VotedAt.UTC(),
		})
	}
	return votes, nil
}

func (r *Repository) ListWordVotes(ctx context.Context, pollID string) ([]entities.WordVote, error) {
	var rows []wordVoteModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("voted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_word_votes_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	votes := make([]entities.WordVote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, entities.WordVote{
			VoteID:  row.ID,
			PollID:  row.PollID,
			UserID:  row.UserID,
			Word:    row.Word,
			VotedAt: row.VotedAt.UTC(),
		})
	}
	return votes, nil
}

// logError reports the failure and wraps it in the store sentinel so the
// transport maps repository faults to 500 without inspecting driver errors.
func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "engagement/poll-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return fmt.Errorf("%w: %s", domainerrors.ErrStoreUnavailable, err)
}

type pollModel struct {
	ID        string          `gorm:"column:id;primaryKey"`
	PagePath  string          `gorm:"column:page_path;uniqueIndex:idx_polls_page_index"`
	PollIndex int             `gorm:"column:poll_index;uniqueIndex:idx_polls_page_index"`
	Question  string          `gorm:"column:question"`
	Options   json.RawMessage `gorm:"column:options;type:jsonb"`
	Kind      string          `gorm:"column:kind"`
	MaxWords  int             `gorm:"column:max_words"`
	WordLimit int             `gorm:"column:word_limit"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromDescriptor(descriptor ports.PollDescriptor) (pollModel, error) {
	options := descriptor.Options
	if options == nil {
		options = []string{}
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return pollModel{}, err
	}
	return pollModel{
		ID:        newPollID(),
		PagePath:  strings.TrimSpace(descriptor.PagePath),
		PollIndex: descriptor.PollIndex,
		Question:  strings.TrimSpace(descriptor.Question),
		Options:   encoded,
		Kind:      string(descriptor.Kind),
		MaxWords:  descriptor.MaxWords,
		WordLimit: descriptor.WordLimit,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m pollModel) toEntity() entities.Poll {
	options := []string{}
	if len(m.Options) > 0 {
		// A malformed options payload degrades to an empty list rather than
		// failing the read.
		_ = json.Unmarshal(m.Options, &options)
	}
	return entities.Poll{
		PollID:    m.ID,
		PagePath:  m.PagePath,
		PollIndex: m.PollIndex,
		Question:  m.Question,
		Options:   options,
		Kind:      entities.PollKind(m.Kind),
		MaxWords:  m.MaxWords,
		WordLimit: m.WordLimit,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type choiceVoteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PollID      string    `gorm:"column:poll_id;index"`
	UserID      string    `gorm:"column:user_id;index"`
	OptionIndex int       `gorm:"column:option_index"`
	OtherText   string    `gorm:"column:other_text"`
	VotedAt     time.Time `gorm:"column:voted_at"`
}

func (choiceVoteModel) TableName() string {
	return "poll_votes"
}

type rankingVoteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PollID      string    `gorm:"column:poll_id;index"`
	UserID      string    `gorm:"column:user_id;index"`
	OptionIndex int       `gorm:"column:option_index"`
	Rank        int       `gorm:"column:rank"`
	VotedAt     time.Time `gorm:"column:voted_at"`
}

func (rankingVoteModel) TableName() string {
	return "ranking_votes"
}

type wordVoteModel struct {
	ID      string    `gorm:"column:id;primaryKey"`
	PollID  string    `gorm:"column:poll_id;index"`
	UserID  string    `gorm:"column:user_id;index"`
	Word    string    `gorm:"column:word"`
	VotedAt time.Time `gorm:"column:voted_at"`
}

func (wordVoteModel) TableName() string {
	return "wordcloud_votes"
}

func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PollRegistry = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
