package markov

// Prune returns a new Chain without the successors observed minFreq times or
// fewer after their key word. Surviving successors keep their relative order
// and their duplicates. Words left with no successors disappear from the
// chain. This is useful for reducing a table to its common, less noisy
// transitions before it is shipped.
func (c *Chain) Prune(minFreq int) *Chain {
	if c.Empty() {
		return NewChain(nil)
	}
	if minFreq <= 0 {
		return NewChain(c.links)
	}

	pruned := make(map[string][]string, len(c.links))
	counts := make(map[string]int)
	for word, next := range c.links {
		clear(counts)
		for _, n := range next {
			counts[n]++
		}
		var kept []string
		for _, n := range next {
			if counts[n] > minFreq {
				kept = append(kept, n)
			}
		}
		if len(kept) > 0 {
			pruned[word] = kept
		}
	}
	return NewChain(pruned)
}
