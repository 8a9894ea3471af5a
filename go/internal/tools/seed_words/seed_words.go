package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hordle/horde/go/internal/dbconfig"
)

// WordSet mirrors the JSON structure of the seed file: an array of word
// sets, each one becoming one queued challenge.
type WordSet struct {
	Words []string `json:"words"`
}

func main() {
	path := "go/internal/assets/word_sets.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var sets []WordSet
	if err := json.Unmarshal(data, &sets); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Append each valid set to the tail of the queue
	var (
		total    = len(sets)
		inserted int
		skipped  int
		errs     int
	)

	for i, set := range sets {
		if !valid(set) {
			fmt.Fprintf(os.Stderr, "skipping invalid set %d: empty or blank words\n", i)
			skipped++
			continue
		}

		_, err = pool.Exec(context.Background(), `
            INSERT INTO word_queue (position, words)
            SELECT COALESCE(MAX(position), 0) + 1, $1
            FROM word_queue
        `, set.Words)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting set %d: %v\n", i, err)
			errs++
			continue
		}
		inserted++
	}

	// 4) Print summary
	fmt.Printf(
		"Word seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}

func valid(set WordSet) bool {
	if len(set.Words) == 0 {
		return false
	}
	for _, w := range set.Words {
		if strings.TrimSpace(w) == "" {
			return false
		}
	}
	return true
}
