package entities

type OptionResult struct {
	OptionIndex int
	OptionText  string
	Votes       int
	AverageRank float64
}

type WordFrequency struct {
	Text  string
	Value int
}

// PollResult is one poll's own result within one identity scheme, computed
// from raw votes at read time. For ranking polls TotalVotes counts
// respondents, not rows.
type PollResult struct {
	PollID     string
	PagePath   string
	PollIndex  int
	Question   string
	Options    []string
	Kind       PollKind
	TotalVotes int
	Results    []OptionResult
	Words      []WordFrequency
}

// CombinedResult merges the survey-scheme and CEW-scheme polls of one logical
// question group. Both per-scheme sub-results are always populated; a scheme
// with no poll contributes zero votes rather than being absent.
type CombinedResult struct {
	PollID      string
	PagePath    string
	PollIndex   int
	Question    string
	Options     []string
	Kind        PollKind
	TotalVotes  int
	SurveyVotes int
	CEWVotes    int

	Results []OptionResult
	Words   []WordFrequency

	SurveyResults []OptionResult
	CEWResults    []OptionResult
	SurveyWords   []WordFrequency
	CEWWords      []WordFrequency
}
