package markov

// StoreStats holds aggregated statistics for an entire chain store, including
// per-entity stats.
type StoreStats struct {
	Entities    []string              `json:"entities"`    // Sorted entity names
	Stats       map[string]ChainStats `json:"stats"`       // Entity name -> stats
	Words       int                   `json:"words"`       // Sum of chain keys over all entities
	Transitions int                   `json:"transitions"` // Sum of successor list lengths over all entities
}

// ChainStats holds aggregated statistics for a single chain.
type ChainStats struct {
	Words             int `json:"words"`              // Keys with at least one successor.
	Transitions       int `json:"transitions"`        // Total observed transitions, duplicates included.
	UniqueTransitions int `json:"unique_transitions"` // Distinct word -> successor pairs.
}

// Stats returns statistics for the chain.
func (c *Chain) Stats() ChainStats {
	stats := ChainStats{Words: c.Len()}
	seen := make(map[string]struct{})
	for _, word := range c.Words() {
		next, _ := c.Next(word)
		stats.Transitions += len(next)
		clear(seen)
		for _, n := range next {
			seen[n] = struct{}{}
		}
		stats.UniqueTransitions += len(seen)
	}
	return stats
}

// Stats returns a snapshot of statistics for the whole store.
func (s *Store) Stats() *StoreStats {
	stats := &StoreStats{
		Entities: s.Entities(),
		Stats:    make(map[string]ChainStats),
	}
	for _, entity := range stats.Entities {
		cs := s.chains[entity].Stats()
		stats.Stats[entity] = cs
		stats.Words += cs.Words
		stats.Transitions += cs.Transitions
	}
	return stats
}
