package markov

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Chain is a first-order Markov transition table mapping a word to the ordered
// list of words observed directly after it. A successor that appears N times
// in a list was observed N times following the key word.
//
// A Chain is immutable after construction. The zero value is an empty chain.
type Chain struct {
	links map[string][]string
	words []string // sorted keys, the start-word candidates
}

// NewChain builds a Chain from a word -> successors mapping. Keys with an empty
// successor list are dropped, since an empty list and a missing key mean the
// same thing to the generator. The input map and slices are copied.
func NewChain(links map[string][]string) *Chain {
	c := &Chain{links: make(map[string][]string, len(links))}
	for word, next := range links {
		if len(next) == 0 {
			continue
		}
		c.links[word] = append([]string(nil), next...)
	}
	c.words = make([]string, 0, len(c.links))
	for word := range c.links {
		c.words = append(c.words, word)
	}
	sort.Strings(c.words)
	return c
}

// Len returns the number of words that have at least one successor.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.words)
}

// Empty reports whether the chain holds no transitions at all.
func (c *Chain) Empty() bool {
	return c.Len() == 0
}

// Has reports whether word is a key of the chain.
func (c *Chain) Has(word string) bool {
	if c == nil {
		return false
	}
	_, ok := c.links[word]
	return ok
}

// Next returns the successor list for word. The boolean is false when the word
// has no successors. The returned slice must not be modified.
func (c *Chain) Next(word string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	next, ok := c.links[word]
	return next, ok
}

// Words returns the chain keys in sorted order. The returned slice must not be
// modified.
func (c *Chain) Words() []string {
	if c == nil {
		return nil
	}
	return c.words
}

// Links returns a copy of the underlying transition map.
func (c *Chain) Links() map[string][]string {
	out := make(map[string][]string, c.Len())
	if c == nil {
		return out
	}
	for word, next := range c.links {
		out[word] = append([]string(nil), next...)
	}
	return out
}

// MarshalJSON encodes the chain as an object of word -> successor arrays.
func (c *Chain) MarshalJSON() ([]byte, error) {
	if c == nil || c.links == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.links)
}

// UnmarshalJSON decodes an object of word -> successor arrays.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var links map[string][]string
	if err := json.Unmarshal(data, &links); err != nil {
		return fmt.Errorf("failed to decode chain: %w", err)
	}
	*c = *NewChain(links)
	return nil
}
