package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// OverallEntity is the reserved entity name of the table aggregated over all
// authors.
const OverallEntity = "Overall"

// Store holds one Chain per tracked entity. It is loaded once at startup and
// never mutated afterwards, so it is safe for concurrent use.
type Store struct {
	chains map[string]*Chain
	logger *slog.Logger
}

// NewStore builds a Store from entity -> Chain pairs. Nil chains are stored as
// empty chains.
func NewStore(chains map[string]*Chain) *Store {
	s := &Store{
		chains: make(map[string]*Chain, len(chains)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for entity, chain := range chains {
		if chain == nil {
			chain = NewChain(nil)
		}
		s.chains[entity] = chain
	}
	return s
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// LoadStore decodes the chain artifact from r. The document is a JSON object
// whose keys are entity names and whose values are objects of word ->
// successor arrays. Successor order and duplicates are preserved.
func LoadStore(r io.Reader) (*Store, error) {
	var raw map[string]*Chain
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode chain store: %w", err)
	}
	return NewStore(raw), nil
}

// Chain returns the chain for entity. The boolean is false when the entity is
// unknown, in which case the returned chain is empty rather than nil.
func (s *Store) Chain(entity string) (*Chain, bool) {
	if s != nil {
		if chain, ok := s.chains[entity]; ok {
			return chain, true
		}
	}
	return NewChain(nil), false
}

// Lookup returns the chain for entity, or an empty chain if there is none.
func (s *Store) Lookup(entity string) *Chain {
	chain, _ := s.Chain(entity)
	return chain
}

// Entities returns the sorted entity names held by the store.
func (s *Store) Entities() []string {
	if s == nil {
		return nil
	}
	entities := make([]string, 0, len(s.chains))
	for entity := range s.chains {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	return entities
}

// Prune returns a new Store in which every chain has been pruned with
// Chain.Prune(minFreq).
func (s *Store) Prune(minFreq int) *Store {
	pruned := make(map[string]*Chain, len(s.chains))
	for entity, chain := range s.chains {
		pruned[entity] = chain.Prune(minFreq)
	}
	out := NewStore(pruned)
	out.logger = s.logger
	out.logger.Info("Chain store pruned",
		slog.Int("min_frequency", minFreq),
		slog.Int("entities", len(pruned)),
	)
	return out
}

// Export serializes the store in the artifact format read by LoadStore and
// writes it to w.
func (s *Store) Export(w io.Writer) error {
	s.logger.Info("Chain store exported",
		slog.Int("entities", len(s.chains)),
	)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.chains)
}
