package http

// Submission bodies use the camelCase field names the poll widgets send.
// Result payloads use snake_case, matching the stored-report consumers.

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitChoiceRequest struct {
	PagePath    string   `json:"pagePath"`
	PollIndex   int      `json:"pollIndex"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	OptionIndex int      `json:"optionIndex"`
	OtherText   string   `json:"otherText,omitempty"`
	AuthCode    string   `json:"authCode,omitempty"`
}

type RankingEntry struct {
	OptionIndex int `json:"optionIndex"`
	Rank        int `json:"rank"`
}

type SubmitRankingRequest struct {
	PagePath  string         `json:"pagePath"`
	PollIndex int            `json:"pollIndex"`
	Question  string         `json:"question"`
	Options   []string       `json:"options"`
	Rankings  []RankingEntry `json:"rankings"`
	AuthCode  string         `json:"authCode,omitempty"`
}

type SubmitWordcloudRequest struct {
	PagePath  string   `json:"pagePath"`
	PollIndex int      `json:"pollIndex"`
	Question  string   `json:"question"`
	MaxWords  int      `json:"maxWords,omitempty"`
	WordLimit int      `json:"wordLimit,omitempty"`
	Words     []string `json:"words"`
	AuthCode  string   `json:"authCode,omitempty"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	PollID  string `json:"pollId"`
}

type OptionResult struct {
	OptionIndex int     `json:"option_index"`
	OptionText  string  `json:"option_text"`
	Votes       int     `json:"votes"`
	AverageRank float64 `json:"averageRank,omitempty"`
}

type WordcloudWord struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// PollResults is one poll's own aggregate; null in a results response means
// the poll has not been created yet.
type PollResults struct {
	PollID     string         `json:"poll_id"`
	PagePath   string         `json:"page_path"`
	PollIndex  int            `json:"poll_index"`
	Question   string         `json:"question"`
	Options    []string       `json:"options"`
	TotalVotes int            `json:"total_votes"`
	Results    []OptionResult `json:"results"`
}

type ChoiceResultsResponse struct {
	Results       *PollResults `json:"results"`
	UserVote      *int         `json:"userVote"`
	UserOtherText string       `json:"userOtherText,omitempty"`
}

type RankingResultsResponse struct {
	Results      *PollResults   `json:"results"`
	UserRankings []RankingEntry `json:"userRankings"`
}

type WordcloudResults struct {
	PollID     string          `json:"poll_id"`
	PagePath   string          `json:"page_path"`
	PollIndex  int             `json:"poll_index"`
	Question   string          `json:"question"`
	MaxWords   int             `json:"max_words"`
	WordLimit  int             `json:"word_limit"`
	TotalVotes int             `json:"total_votes"`
	Words      []WordcloudWord `json:"words"`
}

type WordcloudResultsResponse struct {
	Results   *WordcloudResults `json:"results"`
	UserWords []string          `json:"userWords"`
}

// CombinedPollResult is one logical question group of the cross-scheme
// report.
type CombinedPollResult struct {
	PollID              string          `json:"poll_id,omitempty"`
	PagePath            string          `json:"page_path"`
	PollIndex           int             `json:"poll_index"`
	Question            string          `json:"question"`
	Options             []string        `json:"options"`
	TotalVotes          int             `json:"total_votes"`
	Results             []OptionResult  `json:"results"`
	IsRanking           bool            `json:"is_ranking"`
	IsWordcloud         bool            `json:"is_wordcloud"`
	WordcloudWords      []WordcloudWord `json:"wordcloud_words,omitempty"`
	CombinedSurveyVotes int             `json:"combined_survey_votes"`
	CombinedCEWVotes    int             `json:"combined_cew_votes"`
	SurveyResults       []OptionResult  `json:"survey_results"`
	CEWResults          []OptionResult  `json:"cew_results"`
	SurveyWords         []WordcloudWord `json:"survey_wordcloud_words,omitempty"`
	CEWWords            []WordcloudWord `json:"cew_wordcloud_words,omitempty"`
}

type CombinedResultsResponse struct {
	Results []CombinedPollResult `json:"results"`
}
