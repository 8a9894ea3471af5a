package oracle

import "context"

// Result is the similarity oracle's verdict on a guess. Rank 0 with
// Similarity 1 means an exact match of the secret word.
type Result struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
}

// Oracle scores a guessed word against a secret word. Implementations
// wrap an external semantic-similarity service.
type Oracle interface {
	Rank(ctx context.Context, word, secret string) (Result, error)
}
