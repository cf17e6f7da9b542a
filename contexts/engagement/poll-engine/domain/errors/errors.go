package errors

import "errors"

var (
	ErrUnauthorized          = errors.New("authenticated session required")
	ErrInvalidSubmission     = errors.New("invalid submission payload")
	ErrOptionIndexOutOfRange = errors.New("option index is out of range")
	ErrOtherTextRequired     = errors.New("write-in text is required for the selected option")
	ErrRankingNotBijection   = errors.New("rankings must assign every option exactly one rank from 1 to N")
	ErrNoWords               = errors.New("at least one word is required")
	ErrTooManyWords          = errors.New("too many words submitted")
	ErrWordTooLong           = errors.New("word exceeds the configured character limit")
	ErrBlankWord             = errors.New("words must not be blank")
	ErrDuplicateWord         = errors.New("duplicate words are not allowed")
	ErrPollNotFound          = errors.New("poll not found")
	ErrStoreUnavailable      = errors.New("poll store unavailable")
)
