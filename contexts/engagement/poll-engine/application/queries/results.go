package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	application "pollstack/contexts/engagement/poll-engine/application"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	"pollstack/contexts/engagement/poll-engine/ports"
)

// VoterChoice is the caller's previously stored single-choice vote.
type VoterChoice struct {
	OptionIndex int
	OtherText   string
}

type ChoiceResultsView struct {
	Poll        entities.Poll
	TotalVotes  int
	Results     []entities.OptionResult
	VoterChoice *VoterChoice
}

type RankingResultsView struct {
	Poll          entities.Poll
	TotalVotes    int
	Results       []entities.OptionResult
	VoterRankings []entities.Ranking
}

type WordcloudResultsView struct {
	Poll       entities.Poll
	TotalVotes int
	Words      []entities.WordFrequency
	VoterWords []string
}

// ResultsUseCase serves per-poll aggregates computed from raw vote rows at
// read time. A poll that was never voted on (and so never registered) yields
// an empty view, not an error: result pages load before the first submission.
//
// The caller's own vote is echoed back only on authenticated pages. Anonymous
// pages never reveal which rows belong to which session token.
type ResultsUseCase struct {
	Polls    ports.PollRegistry
	Votes    ports.VoteRepository
	Identity identity.Resolver
	Logger   *slog.Logger
}

func (uc ResultsUseCase) ChoiceResults(ctx context.Context, pagePath string, pollIndex int, session identity.Session) (ChoiceResultsView, error) {
	poll, ok, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pagePath), pollIndex)
	if err != nil {
		return ChoiceResultsView{}, err
	}
	if !ok {
		return ChoiceResultsView{Results: []entities.OptionResult{}}, nil
	}

	votes, err := uc.Votes.ListChoiceVotes(ctx, poll.PollID)
	if err != nil {
		return ChoiceResultsView{}, err
	}

	view := ChoiceResultsView{Poll: poll}
	view.Results, view.TotalVotes = aggregateChoices(poll, votes)

	if token := uc.echoToken(pagePath, session); token != "" {
		for _, vote := range votes {
			if vote.UserID == token {
				view.VoterChoice = &VoterChoice{OptionIndex: vote.OptionIndex, OtherText: vote.OtherText}
				break
			}
		}
	}

	uc.logServed(ctx, "choice", poll, view.TotalVotes)
	return view, nil
}

func (uc ResultsUseCase) RankingResults(ctx context.Context, pagePath string, pollIndex int, session identity.Session) (RankingResultsView, error) {
	poll, ok, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pagePath), pollIndex)
	if err != nil {
		return RankingResultsView{}, err
	}
	if !ok {
		return RankingResultsView{Results: []entities.OptionResult{}, VoterRankings: []entities.Ranking{}}, nil
	}

	votes, err := uc.Votes.ListRankingVotes(ctx, poll.PollID)
	if err != nil {
		return RankingResultsView{}, err
	}

	view := RankingResultsView{Poll: poll, VoterRankings: []entities.Ranking{}}
	view.Results, view.TotalVotes = aggregateRankings(poll, votes)

	if token := uc.echoToken(pagePath, session); token != "" {
		for _, vote := range votes {
			if vote.UserID == token {
				view.VoterRankings = append(view.VoterRankings, entities.Ranking{
					OptionIndex: vote.OptionIndex,
					Rank:        vote.Rank,
				})
			}
		}
		sort.Slice(view.VoterRankings, func(i, j int) bool {
			return view.VoterRankings[i].Rank < view.VoterRankings[j].Rank
		})
	}

	uc.logServed(ctx, "ranking", poll, view.TotalVotes)
	return view, nil
}

func (uc ResultsUseCase) WordcloudResults(ctx context.Context, pagePath string, pollIndex int, session identity.Session) (WordcloudResultsView, error) {
	poll, ok, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pagePath), pollIndex)
	if err != nil {
		return WordcloudResultsView{}, err
	}
	if !ok {
		return WordcloudResultsView{Words: []entities.WordFrequency{}, VoterWords: []string{}}, nil
	}

	votes, err := uc.Votes.ListWordVotes(ctx, poll.PollID)
	if err != nil {
		return WordcloudResultsView{}, err
	}

	view := WordcloudResultsView{Poll: poll, VoterWords: []string{}}
	view.Words, view.TotalVotes = aggregateWords(votes)

	if token := uc.echoToken(pagePath, session); token != "" {
		for _, vote := range votes {
			if vote.UserID == token {
				view.VoterWords = append(view.VoterWords, vote.Word)
			}
		}
	}

	uc.logServed(ctx, "wordcloud", poll, view.TotalVotes)
	return view, nil
}

// echoToken returns the token whose rows may be echoed to the caller, or ""
// when no echo applies.
func (uc ResultsUseCase) echoToken(pagePath string, session identity.Session) string {
	if uc.Identity.IsPublicPath(pagePath) {
		return ""
	}
	return strings.TrimSpace(session.UserID)
}

func (uc ResultsUseCase) logServed(ctx context.Context, kind string, poll entities.Poll, total int) {
	application.ResolveLogger(uc.Logger).DebugContext(ctx, "poll results served",
		"event", "poll_results_served",
		"module", "engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"kind", kind,
		"total_votes", total,
	)
}

// aggregateChoices zero-fills every option so the result always covers the
// full option list in declared order.
func aggregateChoices(poll entities.Poll, votes []entities.ChoiceVote) ([]entities.OptionResult, int) {
	results := make([]entities.OptionResult, len(poll.Options))
	for i, option := range poll.Options {
		results[i] = entities.OptionResult{OptionIndex: i, OptionText: option}
	}
	total := 0
	for _, vote := range votes {
		if vote.OptionIndex < 0 || vote.OptionIndex >= len(results) {
			continue
		}
		results[vote.OptionIndex].Votes++
		total++
	}
	return results, total
}

// aggregateRankings computes the mean rank per option and counts distinct
// respondents. Results are ordered best average first.
func aggregateRankings(poll entities.Poll, votes []entities.RankingVote) ([]entities.OptionResult, int) {
	sums := make([]int, len(poll.Options))
	counts := make([]int, len(poll.Options))
	respondents := map[string]bool{}
	for _, vote := range votes {
		if vote.OptionIndex < 0 || vote.OptionIndex >= len(sums) {
			continue
		}
		sums[vote.OptionIndex] += vote.Rank
		counts[vote.OptionIndex]++
		respondents[vote.UserID] = true
	}

	results := make([]entities.OptionResult, len(poll.Options))
	for i, option := range poll.Options {
		results[i] = entities.OptionResult{OptionIndex: i, OptionText: option, Votes: counts[i]}
		if counts[i] > 0 {
			results[i].AverageRank = float64(sums[i]) / float64(counts[i])
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Votes == 0 || b.Votes == 0 {
			return a.Votes > 0 && b.Votes == 0
		}
		return a.AverageRank < b.AverageRank
	})
	return results, len(respondents)
}

// aggregateWords folds case on read as well as on write, so rows stored
// before folding was enforced still merge.
func aggregateWords(votes []entities.WordVote) ([]entities.WordFrequency, int) {
	freq := map[string]int{}
	respondents := map[string]bool{}
	for _, vote := range votes {
		word := strings.ToLower(strings.TrimSpace(vote.Word))
		if word == "" {
			continue
		}
		freq[word]++
		respondents[vote.UserID] = true
	}

	words := make([]entities.WordFrequency, 0, len(freq))
	for word, count := range freq {
		words = append(words, entities.WordFrequency{Text: word, Value: count})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Value != words[j].Value {
			return words[i].Value > words[j].Value
		}
		return words[i].Text < words[j].Text
	})
	return words, len(respondents)
}
