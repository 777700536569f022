package markov

import (
	"slices"
	"testing"
)

func TestPruneChain(t *testing.T) {
	chain := NewChain(map[string][]string{
		"a": {"b", "c", "b", "d"},
		"b": {"c"},
		"c": {"a", "a", "a"},
	})

	testCases := []struct {
		name     string
		minFreq  int
		expected map[string][]string
	}{
		{
			name:    "Zero keeps everything",
			minFreq: 0,
			expected: map[string][]string{
				"a": {"b", "c", "b", "d"},
				"b": {"c"},
				"c": {"a", "a", "a"},
			},
		},
		{
			name:    "Singletons removed",
			minFreq: 1,
			expected: map[string][]string{
				"a": {"b", "b"},
				"c": {"a", "a", "a"},
			},
		},
		{
			name:    "Only the strongest link survives",
			minFreq: 2,
			expected: map[string][]string{
				"c": {"a", "a", "a"},
			},
		},
		{
			name:     "Everything removed",
			minFreq:  3,
			expected: map[string][]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pruned := chain.Prune(tc.minFreq)
			got := pruned.Links()
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %d words, got %d (%v)", len(tc.expected), len(got), got)
			}
			for word, next := range tc.expected {
				if !slices.Equal(got[word], next) {
					t.Errorf("%s: expected %v, got %v", word, next, got[word])
				}
			}
		})
	}

	// The original chain is untouched.
	if next, _ := chain.Next("b"); !slices.Equal(next, []string{"c"}) {
		t.Errorf("Prune modified the receiver: %v", next)
	}
}

func TestPruneStore(t *testing.T) {
	pruned := testStore().Prune(1)

	if !slices.Equal(pruned.Entities(), testStore().Entities()) {
		t.Errorf("pruning must keep every entity, got %v", pruned.Entities())
	}
	overall := pruned.Lookup(OverallEntity)
	if overall.Len() != 1 || !overall.Has("the") {
		t.Errorf("expected only 'the' to survive in Overall, got %v", overall.Words())
	}
	if !pruned.Lookup("RepSmith").Empty() {
		t.Error("expected RepSmith chain to be emptied by pruning")
	}
}

func TestChainStats(t *testing.T) {
	stats := testStore().Stats()

	if stats.Words != 5 {
		t.Errorf("expected 5 words overall, got %d", stats.Words)
	}
	if stats.Transitions != 8 {
		t.Errorf("expected 8 transitions overall, got %d", stats.Transitions)
	}
	overall := stats.Stats[OverallEntity]
	want := ChainStats{Words: 3, Transitions: 6, UniqueTransitions: 5}
	if overall != want {
		t.Errorf("Overall stats = %+v, want %+v", overall, want)
	}
	if quiet := stats.Stats["RepQuiet"]; quiet != (ChainStats{}) {
		t.Errorf("expected zero stats for empty chain, got %+v", quiet)
	}
}
