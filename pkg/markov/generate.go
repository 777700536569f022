package markov

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
)

// InsufficientDataMessage is what Generate returns in place of a tweet when
// the chain has no transitions.
const InsufficientDataMessage = "Not enough data to generate a tweet."

// ErrInsufficientData is returned by the word-level generation functions when
// the chain is empty. It is an expected state for new or inactive entities.
var ErrInsufficientData = errors.New("markov: not enough data to generate a tweet")

// Rand is the source of randomness used during generation. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform int in [0, n). n is always > 0.
	IntN(n int) int
	// Float64 returns a uniform float64 in [0.0, 1.0).
	Float64() float64
}

// globalRand forwards to the process-wide math/rand/v2 source.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// wordFreq is a successor collapsed with the number of times it was observed.
type wordFreq struct {
	word string
	freq int
}

// generateOptions is used by the generate functions to configure default options.
type generateOptions struct {
	rand        Rand
	temperature float64
	topK        int
	logger      *slog.Logger
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in generation functions like Generate and GenerateStream.
type GenerateOption func(*generateOptions)

// WithRand sets the random source. A nil source keeps the default, which draws
// from the global math/rand/v2 generator.
func WithRand(r Rand) GenerateOption {
	return func(o *generateOptions) {
		if r != nil {
			o.rand = r
		}
	}
}

// WithTemperature adjusts the randomness of the successor selection.
// A value of 1.0 is plain uniform selection over the successor list.
// Values > 1.0 flatten the distribution (rare successors become more likely).
// Values < 1.0 sharpen it (frequent successors become even more likely).
// A value of 0 or less always picks the most frequent successor.
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts each step to the k most frequent distinct successors.
// A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithLogger enables debug logging of how each walk terminated.
func WithLogger(logger *slog.Logger) GenerateOption {
	return func(o *generateOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{
		rand:        globalRand{},
		temperature: 1.0,
		topK:        0,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Generate walks the chain and returns up to length words joined by single
// spaces. If seed is non-empty and a key of the chain, the walk starts there;
// otherwise the first word is chosen uniformly from the chain's keys. The walk
// stops early when the current word has no successors.
//
// An empty chain yields InsufficientDataMessage regardless of length and seed.
// A non-positive length on a non-empty chain yields the empty string.
func Generate(chain *Chain, length int, seed string, opts ...GenerateOption) string {
	words, err := GenerateWords(chain, length, seed, opts...)
	if errors.Is(err, ErrInsufficientData) {
		return InsufficientDataMessage
	}
	return strings.Join(words, " ")
}

// GenerateWords is the word-level form of Generate. It returns
// ErrInsufficientData for an empty chain and a nil slice for a non-positive
// length.
func GenerateWords(chain *Chain, length int, seed string, opts ...GenerateOption) ([]string, error) {
	if chain.Empty() {
		return nil, ErrInsufficientData
	}
	if length <= 0 {
		return nil, nil
	}
	options := newGenerateOptions(opts)

	word := startWord(chain, seed, options)
	words := make([]string, 1, min(length, 64))
	words[0] = word

	for len(words) < length {
		next, ok := chain.Next(word)
		if !ok {
			options.logger.Debug("Generation terminated due to dead-end",
				slog.String("last_word", word),
				slog.Int("generated_length", len(words)),
			)
			return words, nil
		}
		word = chooseNextWord(next, options)
		words = append(words, word)
	}

	options.logger.Debug("Generation terminated by reaching length",
		slog.Int("length", length),
	)
	return words, nil
}

// startWord picks the first word of a walk. chain must not be empty.
func startWord(chain *Chain, seed string, options *generateOptions) string {
	if seed != "" && chain.Has(seed) {
		return seed
	}
	words := chain.Words()
	return words[options.rand.IntN(len(words))]
}

// chooseNextWord selects one successor from a non-empty list. With default
// options it is a uniform pick by index, so duplicates carry the weighting.
func chooseNextWord(next []string, options *generateOptions) string {
	if options.temperature == 1.0 && options.topK <= 0 {
		return next[options.rand.IntN(len(next))]
	}

	choices := collapse(next)
	totalFreq := len(next)

	// topK filtering
	if options.topK > 0 && options.topK < len(choices) {
		sort.SliceStable(choices, func(i, j int) bool {
			return choices[i].freq > choices[j].freq
		})
		choices = choices[:options.topK]
		totalFreq = 0
		for _, choice := range choices {
			totalFreq += choice.freq
		}
	}

	// temperature selection
	if options.temperature <= 0 { // Deterministic
		best := choices[0]
		for _, choice := range choices[1:] {
			if choice.freq > best.freq {
				best = choice
			}
		}
		return best.word
	}

	if options.temperature == 1.0 { // Standard weighted random
		randChoice := options.rand.IntN(totalFreq)
		for _, choice := range choices {
			randChoice -= choice.freq
			if randChoice < 0 {
				return choice.word
			}
		}
		return choices[len(choices)-1].word
	}

	// Temperature-based sampling
	maxLogProb := math.Inf(-1)
	logProbabilities := make([]float64, len(choices))
	for i, choice := range choices {
		lp := math.Log(float64(choice.freq)) / options.temperature
		logProbabilities[i] = lp
		if lp > maxLogProb {
			maxLogProb = lp
		}
	}
	var totalWeight float64
	weights := make([]float64, len(choices))
	for i, lp := range logProbabilities {
		w := math.Exp(lp - maxLogProb)
		weights[i] = w
		totalWeight += w
	}
	randChoice := options.rand.Float64() * totalWeight
	for i, choice := range choices {
		randChoice -= weights[i]
		if randChoice < 0 {
			return choice.word
		}
	}
	return choices[len(choices)-1].word
}

// collapse groups a successor list into distinct words with their counts,
// in order of first appearance.
func collapse(next []string) []wordFreq {
	index := make(map[string]int, len(next))
	choices := make([]wordFreq, 0, len(next))
	for _, word := range next {
		if i, ok := index[word]; ok {
			choices[i].freq++
			continue
		}
		index[word] = len(choices)
		choices = append(choices, wordFreq{word: word, freq: 1})
	}
	return choices
}
