package markov

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB creates a new SQLite database file with the chain schema.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) *sql.DB {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	return db
}

// seqRand replays a fixed sequence of choices, wrapping each into [0, n).
type seqRand struct {
	ints []int
	pos  int
}

func (r *seqRand) IntN(n int) int {
	v := r.ints[r.pos%len(r.ints)]
	r.pos++
	return v % n
}

func (r *seqRand) Float64() float64 {
	return 0.5
}

// newTestRand returns a reproducible random source.
func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// testStore is a small store shaped like the real artifact.
func testStore() *Store {
	return NewStore(map[string]*Chain{
		OverallEntity: NewChain(map[string][]string{
			"the":   {"house", "house", "floor"},
			"house": {"passed", "voted"},
			"floor": {"vote"},
		}),
		"RepSmith": NewChain(map[string][]string{
			"x": {"y"},
			"y": {"x"},
		}),
		"RepQuiet": NewChain(nil),
	})
}

var (
	benchmarkChain *Chain
	chainOnce      sync.Once
)

// createBenchmarkChain builds a chain over a synthetic vocabulary large enough
// to make lookups and selection show up in profiles.
func createBenchmarkChain() *Chain {
	chainOnce.Do(func() {
		r := newTestRand()
		links := make(map[string][]string)
		for i := 0; i < 5000; i++ {
			word := fmt.Sprintf("w%d", i)
			next := make([]string, 1+r.IntN(20))
			for j := range next {
				next[j] = fmt.Sprintf("w%d", r.IntN(5000))
			}
			links[word] = next
		}
		benchmarkChain = NewChain(links)
	})
	return benchmarkChain
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
