package httpadapter

import (
	"context"
	"log/slog"

	"pollstack/contexts/engagement/poll-engine/application/commands"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	"pollstack/contexts/engagement/poll-engine/application/queries"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	httptransport "pollstack/contexts/engagement/poll-engine/transport/http"
)

// Handler adapts transport payloads to the application services. The server
// layer owns routing and error mapping; nothing here touches net/http.
type Handler struct {
	Submissions commands.SubmitUseCase
	Results     queries.ResultsUseCase
	Combined    queries.CombinedUseCase
	Logger      *slog.Logger
}

func (h Handler) SubmitChoiceHandler(
	ctx context.Context,
	session identity.Session,
	req httptransport.SubmitChoiceRequest,
) (httptransport.SubmitResponse, error) {
	result, err := h.Submissions.SubmitSingleChoice(ctx, commands.SubmitSingleChoiceCommand{
		PagePath:    req.PagePath,
		PollIndex:   req.PollIndex,
		Question:    req.Question,
		Options:     req.Options,
		OptionIndex: req.OptionIndex,
		OtherText:   req.OtherText,
		Session:     sessionWithCampaign(session, req.AuthCode),
	})
	if err != nil {
		return httptransport.SubmitResponse{}, err
	}
	return httptransport.SubmitResponse{Success: true, PollID: result.PollID}, nil
}

func (h Handler) SubmitRankingHandler(
	ctx context.Context,
	session identity.Session,
	req httptransport.SubmitRankingRequest,
) (httptransport.SubmitResponse, error) {
	rankings := make([]entities.Ranking, 0, len(req.Rankings))
	for _, entry := range req.Rankings {
		rankings = append(rankings, entities.Ranking{OptionIndex: entry.OptionIndex, Rank: entry.Rank})
	}
	result, err := h.Submissions.SubmitRanking(ctx, commands.SubmitRankingCommand{
		PagePath:  req.PagePath,
		PollIndex: req.PollIndex,
		Question:  req.Question,
		Options:   req.Options,
		Rankings:  rankings,
		Session:   sessionWithCampaign(session, req.AuthCode),
	})
	if err != nil {
		return httptransport.SubmitResponse{}, err
	}
	return httptransport.SubmitResponse{Success: true, PollID: result.PollID}, nil
}

func (h Handler) SubmitWordcloudHandler(
	ctx context.Context,
	session identity.Session,
	req httptransport.SubmitWordcloudRequest,
) (httptransport.SubmitResponse, error) {
	result, err := h.Submissions.SubmitWordcloud(ctx, commands.SubmitWordcloudCommand{
		PagePath:  req.PagePath,
		PollIndex: req.PollIndex,
		Question:  req.Question,
		MaxWords:  req.MaxWords,
		WordLimit: req.WordLimit,
		Words:     req.Words,
		Session:   sessionWithCampaign(session, req.AuthCode),
	})
	if err != nil {
		return httptransport.SubmitResponse{}, err
	}
	return httptransport.SubmitResponse{Success: true, PollID: result.PollID}, nil
}

func (h Handler) ChoiceResultsHandler(
	ctx context.Context,
	session identity.Session,
	pagePath string,
	pollIndex int,
) (httptransport.ChoiceResultsResponse, error) {
	view, err := h.Results.ChoiceResults(ctx, pagePath, pollIndex, session)
	if err != nil {
		return httptransport.ChoiceResultsResponse{}, err
	}

	response := httptransport.ChoiceResultsResponse{}
	if view.Poll.PollID != "" {
		response.Results = &httptransport.PollResults{
			PollID:     view.Poll.PollID,
			PagePath:   view.Poll.PagePath,
			PollIndex:  view.Poll.PollIndex,
			Question:   view.Poll.Question,
			Options:    optionList(view.Poll.Options),
			TotalVotes: view.TotalVotes,
			Results:    mapOptionResults(view.Results),
		}
	}
	if view.VoterChoice != nil {
		vote := view.VoterChoice.OptionIndex
		response.UserVote = &vote
		response.UserOtherText = view.VoterChoice.OtherText
	}
	return response, nil
}

func (h Handler) RankingResultsHandler(
	ctx context.Context,
	session identity.Session,
	pagePath string,
	pollIndex int,
) (httptransport.RankingResultsResponse, error) {
	view, err := h.Results.RankingResults(ctx, pagePath, pollIndex, session)
	if err != nil {
		return httptransport.RankingResultsResponse{}, err
	}

	response := httptransport.RankingResultsResponse{UserRankings: []httptransport.RankingEntry{}}
	if view.Poll.PollID != "" {
		response.Results = &httptransport.PollResults{
			PollID:     view.Poll.PollID,
			PagePath:   view.Poll.PagePath,
			PollIndex:  view.Poll.PollIndex,
			Question:   view.Poll.Question,
			Options:    optionList(view.Poll.Options),
			TotalVotes: view.TotalVotes,
			Results:    mapOptionResults(view.Results),
		}
	}
	for _, ranking := range view.VoterRankings {
		response.UserRankings = append(response.UserRankings, httptransport.RankingEntry{
			OptionIndex: ranking.OptionIndex,
			Rank:        ranking.Rank,
		})
	}
	return response, nil
}

func (h Handler) WordcloudResultsHandler(
	ctx context.Context,
	session identity.Session,
	pagePath string,
	pollIndex int,
) (httptransport.WordcloudResultsResponse, error) {
	view, err := h.Results.WordcloudResults(ctx, pagePath, pollIndex, session)
	if err != nil {
		return httptransport.WordcloudResultsResponse{}, err
	}

	response := httptransport.WordcloudResultsResponse{UserWords: []string{}}
	if view.Poll.PollID != "" {
		response.Results = &httptransport.WordcloudResults{
			PollID:     view.Poll.PollID,
			PagePath:   view.Poll.PagePath,
			PollIndex:  view.Poll.PollIndex,
			Question:   view.Poll.Question,
			MaxWords:   view.Poll.MaxWords,
			WordLimit:  view.Poll.WordLimit,
			TotalVotes: view.TotalVotes,
			Words:      mapWords(view.Words),
		}
	}
	response.UserWords = append(response.UserWords, view.VoterWords...)
	return response, nil
}

func (h Handler) CombinedResultsHandler(ctx context.Context) (httptransport.CombinedResultsResponse, error) {
	combined, err := h.Combined.CombinedResults(ctx, nil)
	if err != nil {
		return httptransport.CombinedResultsResponse{}, err
	}

	results := make([]httptransport.CombinedPollResult, 0, len(combined))
	for _, group := range combined {
		entry := httptransport.CombinedPollResult{
			PollID:              group.PollID,
			PagePath:            group.PagePath,
			PollIndex:           group.PollIndex,
			Question:            group.Question,
			Options:             optionList(group.Options),
			TotalVotes:          group.TotalVotes,
			Results:             mapOptionResults(group.Results),
			IsRanking:           group.Kind == entities.PollKindRanking,
			IsWordcloud:         group.Kind == entities.PollKindWordcloud,
			CombinedSurveyVotes: group.SurveyVotes,
			CombinedCEWVotes:    group.CEWVotes,
			SurveyResults:       mapOptionResults(group.SurveyResults),
			CEWResults:          mapOptionResults(group.CEWResults),
		}
		if entry.IsWordcloud {
			entry.WordcloudWords = mapWords(group.Words)
			entry.SurveyWords = mapWords(group.SurveyWords)
			entry.CEWWords = mapWords(group.CEWWords)
		}
		results = append(results, entry)
	}
	return httptransport.CombinedResultsResponse{Results: results}, nil
}

func sessionWithCampaign(session identity.Session, authCode string) identity.Session {
	if authCode != "" {
		session.CampaignCode = authCode
	}
	return session
}

func optionList(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}

func mapOptionResults(results []entities.OptionResult) []httptransport.OptionResult {
	mapped := make([]httptransport.OptionResult, 0, len(results))
	for _, result := range results {
		mapped = append(mapped, httptransport.OptionResult{
			OptionIndex: result.OptionIndex,
			OptionText:  result.OptionText,
			Votes:       result.Votes,
			AverageRank: result.AverageRank,
		})
	}
	return mapped
}

func mapWords(words []entities.WordFrequency) []httptransport.WordcloudWord {
	mapped := make([]httptransport.WordcloudWord, 0, len(words))
	for _, word := range words {
		mapped = append(mapped, httptransport.WordcloudWord{Text: word.Text, Value: word.Value})
	}
	return mapped
}
