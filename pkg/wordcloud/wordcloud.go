// Package wordcloud serves the precomputed word-cloud text of each entity and
// the word frequencies an external renderer needs to lay a cloud out.
package wordcloud

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// OverallEntity selects the text aggregated over all authors.
const OverallEntity = "Overall"

// NoDataMessage is shown in place of a cloud when an author has no text.
const NoDataMessage = "No data available for this user."

// Texts holds the overall word-cloud text and one text per author.
type Texts struct {
	overall string
	users   map[string]string
}

// WordCount is a word and the number of times it occurs in a text.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Load reads the overall text verbatim from overall and the per-author texts
// from perUser, a JSON object of author -> text. Either reader may be nil.
func Load(overall, perUser io.Reader) (*Texts, error) {
	t := &Texts{users: make(map[string]string)}
	if overall != nil {
		data, err := io.ReadAll(overall)
		if err != nil {
			return nil, fmt.Errorf("failed to read overall word cloud text: %w", err)
		}
		t.overall = string(data)
	}
	if perUser != nil {
		if err := json.NewDecoder(perUser).Decode(&t.users); err != nil {
			return nil, fmt.Errorf("failed to decode user word cloud text: %w", err)
		}
	}
	return t, nil
}

// For returns the text for entity. OverallEntity selects the aggregate text.
// The boolean is false when there is no non-blank text for the entity.
func (t *Texts) For(entity string) (string, bool) {
	if t == nil {
		return "", false
	}
	text := t.users[entity]
	if entity == OverallEntity {
		text = t.overall
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Users returns the sorted authors that have word-cloud text.
func (t *Texts) Users() []string {
	if t == nil {
		return nil
	}
	users := make([]string, 0, len(t.users))
	for user := range t.users {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// TopWords counts the whitespace-separated words of text and returns the n
// most frequent, ordered by count descending and then alphabetically. A
// non-positive n returns every word. The text is expected to be cleaned
// upstream, so words are counted exactly as they appear.
func TopWords(text string, n int) []WordCount {
	counts := make(map[string]int)
	for _, word := range strings.Fields(text) {
		counts[word]++
	}
	words := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		words = append(words, WordCount{Word: word, Count: count})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if n > 0 && n < len(words) {
		words = words[:n]
	}
	return words
}
