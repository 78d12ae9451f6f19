package domain

// NotFoundAnswer is returned verbatim when no usable evidence exists.
const NotFoundAnswer = "I could not find this in the website data."

// Query is a single question as received from a caller.
type Query struct {
	Question string
	TopK     int
	Detailed bool
}

// AnswerResult is the generated answer plus the URLs of the chunks that fed the prompt.
type AnswerResult struct {
	Answer  string
	Sources []string
}
