package queries

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	application "pollstack/contexts/engagement/poll-engine/application"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	"pollstack/contexts/engagement/poll-engine/ports"
)

// DefaultActiveQuestions is the hand-maintained canonical list of questions
// currently on the result pages. Polls whose stored wording does not match
// any entry carry retired wording and stay out of the combined report.
var DefaultActiveQuestions = []string{
	// Holistic protection
	"Rank the importance of updating CSR sediment standards for direct toxicity to ecological receptors (matrix standards, possibly based on SSDs). (1 = very important to 5 = not important)",
	"Rank the feasibility of updating CSR sediment standards for direct toxicity to ecological receptors (matrix standards, possibly based on SSDs). (1 = easily achievable to 5 = not feasible)",
	"Rank the importance of developing CSR sediment standards for direct toxicity to human receptors (matrix standards). (1 = very important to 5 = not important)",
	"Rank the feasibility of developing CSR sediment standards for direct toxicity to human receptors (matrix standards). (1 = easily achievable to 5 = not feasible)",
	"Rank the importance of developing new CSR sediment standards for food-related toxicity to ecological receptors. (1 = very important to 5 = not important)",
	"Rank the feasibility of developing new CSR sediment standards for food-related toxicity to ecological receptors. (1 = easily achievable to 5 = not feasible)",
	"Rank the importance of developing CSR sediment standards for food-related toxicity to human receptors. (1 = very important to 5 = not important)",
	"Rank the feasibility of developing CSR sediment standards for food-related toxicity to human receptors. (1 = easily achievable to 5 = not feasible)",
	// Tiered framework
	"What is the primary regulatory advantage of using a probabilistic framework (e.g., Bayesian) to integrate EqP and BLM predictions into a scientific framework for deriving site-specific sediment standards (Tier 2)?",
	"In developing a probabilistic framework for deriving site-specific sediment standards (Tier 2), which data type is most critical for effectively narrowing the uncertainty of the final risk estimate?",
	"What is the biggest practical hurdle to overcome when implementing a Bayesian framework in the development of a scientific framework for deriving site-specific sediment standards (Tier 2)?",
	// Prioritization
	"Rank the importance of incorporating bioavailability adjustments into sediment standards. (1 = very important to 5 = not important)",
	"Rank the feasibility of incorporating bioavailability adjustments into sediment standards. (1 = easily achievable to 5 = not feasible)",
	"To help focus development of matrix standards, please rank the four actions below for the degree to which they would improve utility of the standards (1 = top priority; 4 = lowest priority). If you do not know or have an opinion, do not respond to any given question.",
	"Of the four options below, what focus will provide greatest value to holistic sediment management in BC? (1 = top priority; 4 = lowest priority)",
	"Overall, what is the greatest constraint to advancing holistic sediment protection in BC?",
}

// CombinedUseCase builds the cross-scheme report: one entry per logical
// question group, merging the survey-page poll and the CEW-page poll that
// render the same question. Everything is recomputed from raw votes on each
// read, there is no cache.
type CombinedUseCase struct {
	Polls  ports.PollRegistry
	Votes  ports.VoteRepository
	Logger *slog.Logger
}

// pollGroup collects the (at most) two scheme-side results of one topic key.
type pollGroup struct {
	key       string
	question  string
	options   []string
	pollIndex int
	kind      entities.PollKind

	survey *schemeResult
	cew    *schemeResult
}

// schemeResult is the precomputed per-poll aggregate of one scheme side.
type schemeResult struct {
	poll       entities.Poll
	totalVotes int
	results    []entities.OptionResult
	words      []entities.WordFrequency
}

// CombinedResults computes the report against the given canonical question
// list. A nil list means DefaultActiveQuestions.
func (uc CombinedUseCase) CombinedResults(ctx context.Context, activeQuestions []string) ([]entities.CombinedResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if activeQuestions == nil {
		activeQuestions = DefaultActiveQuestions
	}

	polls, err := uc.Polls.ListPolls(ctx)
	if err != nil {
		return nil, err
	}

	groups := map[string]*pollGroup{}
	order := []string{}
	for _, poll := range polls {
		if !matchesAny(poll.Question, activeQuestions) {
			logger.DebugContext(ctx, "poll dropped from combined report",
				"event", "poll_combined_question_retired",
				"module", "engagement/poll-engine",
				"layer", "application",
				"poll_id", poll.PollID,
				"page_path", poll.PagePath,
			)
			continue
		}

		side, err := uc.precompute(ctx, poll)
		if err != nil {
			return nil, err
		}

		key := topicKey(poll.PagePath, poll.PollIndex)
		group, ok := groups[key]
		if !ok {
			group = &pollGroup{
				key:       key,
				question:  poll.Question,
				options:   poll.Options,
				pollIndex: poll.PollIndex,
				kind:      poll.Kind,
			}
			groups[key] = group
			order = append(order, key)
		}

		if isCEWPath(poll.PagePath) {
			group.cew = side
			// The CEW rendering of the holistic-protection pages carries the
			// most recent copy edits, so its wording wins for the group.
			if strings.Contains(poll.PagePath, "holistic-protection") {
				group.question = poll.Question
				group.options = poll.Options
			}
		} else {
			// Everything off the CEW prefix is authenticated survey traffic,
			// pages outside the known survey routes included. A group never
			// ends up with both sides empty.
			group.survey = side
		}
	}

	combined := make([]entities.CombinedResult, 0, len(order))
	for _, key := range order {
		combined = append(combined, uc.combine(groups[key]))
	}
	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].PagePath != combined[j].PagePath {
			return combined[i].PagePath < combined[j].PagePath
		}
		return combined[i].PollIndex < combined[j].PollIndex
	})

	logger.InfoContext(ctx, "combined poll report built",
		"event", "poll_combined_report_built",
		"module", "engagement/poll-engine",
		"layer", "application",
		"groups", len(combined),
		"polls_scanned", len(polls),
	)
	return combined, nil
}

func (uc CombinedUseCase) precompute(ctx context.Context, poll entities.Poll) (*schemeResult, error) {
	side := &schemeResult{poll: poll}
	switch poll.Kind {
	case entities.PollKindRanking:
		votes, err := uc.Votes.ListRankingVotes(ctx, poll.PollID)
		if err != nil {
			return nil, err
		}
		side.results, side.totalVotes = aggregateRankings(poll, votes)
	case entities.PollKindWordcloud:
		votes, err := uc.Votes.ListWordVotes(ctx, poll.PollID)
		if err != nil {
			return nil, err
		}
		side.words, side.totalVotes = aggregateWords(votes)
	default:
		votes, err := uc.Votes.ListChoiceVotes(ctx, poll.PollID)
		if err != nil {
			return nil, err
		}
		side.results, side.totalVotes = aggregateChoices(poll, votes)
	}
	return side, nil
}

// combine merges the two scheme sides of one group. Both per-scheme
// sub-results are always populated; a missing side contributes zero votes and
// empty slices rather than being absent.
func (uc CombinedUseCase) combine(group *pollGroup) entities.CombinedResult {
	result := entities.CombinedResult{
		Question:      group.question,
		Options:       group.options,
		PollIndex:     group.pollIndex,
		Kind:          group.kind,
		Results:       []entities.OptionResult{},
		Words:         []entities.WordFrequency{},
		SurveyResults: []entities.OptionResult{},
		CEWResults:    []entities.OptionResult{},
		SurveyWords:   []entities.WordFrequency{},
		CEWWords:      []entities.WordFrequency{},
	}
	if result.Options == nil {
		result.Options = []string{}
	}

	if group.survey != nil {
		result.PollID = group.survey.poll.PollID
		result.PagePath = group.survey.poll.PagePath
		result.SurveyVotes = group.survey.totalVotes
	}
	if group.cew != nil {
		if result.PollID == "" {
			result.PollID = group.cew.poll.PollID
			result.PagePath = group.cew.poll.PagePath
		}
		result.CEWVotes = group.cew.totalVotes
	}
	result.TotalVotes = result.SurveyVotes + result.CEWVotes

	switch group.kind {
	case entities.PollKindRanking:
		if group.survey != nil {
			result.SurveyResults = sortByAverage(group.survey.results)
		}
		if group.cew != nil {
			result.CEWResults = sortByAverage(group.cew.results)
		}
		result.Results = combineRankings(group)
	case entities.PollKindWordcloud:
		if group.survey != nil {
			result.SurveyWords = group.survey.words
		}
		if group.cew != nil {
			result.CEWWords = group.cew.words
		}
		result.Words = mergeWords(result.SurveyWords, result.CEWWords)
	default:
		if group.survey != nil {
			result.SurveyResults = sortByVotes(group.survey.results)
		}
		if group.cew != nil {
			result.CEWResults = sortByVotes(group.cew.results)
		}
		result.Results = combineChoices(group)
	}
	return result
}

// combineChoices sums per-option counts across the two sides and sorts the
// merged list by combined count, highest first.
func combineChoices(group *pollGroup) []entities.OptionResult {
	merged := map[int]*entities.OptionResult{}
	indexes := []int{}
	for _, side := range []*schemeResult{group.survey, group.cew} {
		if side == nil {
			continue
		}
		for _, option := range side.results {
			entry, ok := merged[option.OptionIndex]
			if !ok {
				entry = &entities.OptionResult{
					OptionIndex: option.OptionIndex,
					OptionText:  optionText(option, group.options),
				}
				merged[option.OptionIndex] = entry
				indexes = append(indexes, option.OptionIndex)
			}
			entry.Votes += option.Votes
		}
	}

	combined := make([]entities.OptionResult, 0, len(indexes))
	for _, index := range indexes {
		combined = append(combined, *merged[index])
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Votes > combined[j].Votes
	})
	return combined
}

// combineRankings produces the combined average per option as the
// vote-count-weighted mean of the two sides' precomputed averages, using each
// side's per-option response counts as weights. Lower average ranks first.
func combineRankings(group *pollGroup) []entities.OptionResult {
	type accumulator struct {
		weightedSum float64
		weight      int
		text        string
	}
	merged := map[int]*accumulator{}
	indexes := []int{}
	for _, side := range []*schemeResult{group.survey, group.cew} {
		if side == nil {
			continue
		}
		for _, option := range side.results {
			entry, ok := merged[option.OptionIndex]
			if !ok {
				entry = &accumulator{text: optionText(option, group.options)}
				merged[option.OptionIndex] = entry
				indexes = append(indexes, option.OptionIndex)
			}
			entry.weightedSum += option.AverageRank * float64(option.Votes)
			entry.weight += option.Votes
		}
	}

	combined := make([]entities.OptionResult, 0, len(indexes))
	for _, index := range indexes {
		entry := merged[index]
		option := entities.OptionResult{
			OptionIndex: index,
			OptionText:  entry.text,
			Votes:       entry.weight,
		}
		if entry.weight > 0 {
			option.AverageRank = entry.weightedSum / float64(entry.weight)
		}
		combined = append(combined, option)
	}
	return sortByAverage(combined)
}

func mergeWords(sides ...[]entities.WordFrequency) []entities.WordFrequency {
	freq := map[string]int{}
	for _, side := range sides {
		for _, word := range side {
			if word.Text == "" {
				continue
			}
			freq[word.Text] += word.Value
		}
	}
	merged := make([]entities.WordFrequency, 0, len(freq))
	for text, value := range freq {
		merged = append(merged, entities.WordFrequency{Text: text, Value: value})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Value != merged[j].Value {
			return merged[i].Value > merged[j].Value
		}
		return merged[i].Text < merged[j].Text
	})
	return merged
}

func sortByVotes(results []entities.OptionResult) []entities.OptionResult {
	sorted := append([]entities.OptionResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Votes > sorted[j].Votes
	})
	return sorted
}

func sortByAverage(results []entities.OptionResult) []entities.OptionResult {
	sorted := append([]entities.OptionResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.Votes == 0) != (b.Votes == 0) {
			return a.Votes > 0
		}
		return a.AverageRank < b.AverageRank
	})
	return sorted
}

func optionText(option entities.OptionResult, options []string) string {
	if option.OptionText != "" {
		return option.OptionText
	}
	if option.OptionIndex >= 0 && option.OptionIndex < len(options) {
		return options[option.OptionIndex]
	}
	return ""
}

// topicKey groups the survey-page and CEW-page renderings of one question.
// The well-known topic slugs match anywhere in the path so the /cew-polls
// mirror of a survey page lands on the same key.
func topicKey(pagePath string, pollIndex int) string {
	topics := []string{"holistic-protection", "tiered-framework", "prioritization", "wiks"}
	for _, topic := range topics {
		if strings.Contains(pagePath, topic) {
			return joinKey(topic, pollIndex)
		}
	}
	segments := strings.Split(strings.TrimRight(pagePath, "/"), "/")
	topic := segments[len(segments)-1]
	if topic == "" {
		topic = "unknown"
	}
	return joinKey(topic, pollIndex)
}

func joinKey(topic string, pollIndex int) string {
	return topic + "_" + strconv.Itoa(pollIndex)
}

func isCEWPath(pagePath string) bool {
	return strings.HasPrefix(pagePath, "/cew-polls")
}

// matchesAny applies the fuzzy wording comparison that tolerates trailing
// copy edits: compare the first 100 characters case-insensitively, accept
// when either side's 50-character prefix is contained in the other, with
// overrides for recurring phrases that identify a question family on their
// own.
func matchesAny(question string, activeQuestions []string) bool {
	for _, candidate := range activeQuestions {
		if questionMatches(question, candidate) {
			return true
		}
	}
	return false
}

func questionMatches(question string, candidate string) bool {
	questionStart := strings.ToLower(truncate(question, 100))
	candidateStart := strings.ToLower(truncate(candidate, 100))
	if strings.Contains(questionStart, truncate(candidateStart, 50)) ||
		strings.Contains(candidateStart, truncate(questionStart, 50)) {
		return true
	}
	for _, phrase := range []string{"matrix sediment standards", "matrix standards", "barrier"} {
		if strings.Contains(questionStart, phrase) && strings.Contains(candidateStart, phrase) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
