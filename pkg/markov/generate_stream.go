package markov

import (
	"context"
	"log/slog"
)

// GenerateStream performs the same walk as GenerateWords but delivers words
// one at a time on the returned channel. The channel is closed once the walk
// ends or ctx is cancelled.
func GenerateStream(ctx context.Context, chain *Chain, length int, seed string, opts ...GenerateOption) (<-chan string, error) {
	if chain.Empty() {
		return nil, ErrInsufficientData
	}
	options := newGenerateOptions(opts)
	wordChan := make(chan string)

	go func() {
		defer close(wordChan)
		if length <= 0 {
			return
		}

		word := startWord(chain, seed, options)
		for generated := 0; generated < length; generated++ {
			if generated > 0 {
				next, ok := chain.Next(word)
				if !ok {
					options.logger.DebugContext(ctx, "Generation stream terminated due to dead-end",
						slog.String("last_word", word),
						slog.Int("generated_length", generated),
					)
					return
				}
				word = chooseNextWord(next, options)
			}
			select {
			case <-ctx.Done():
				options.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			case wordChan <- word:
			}
		}
	}()

	return wordChan, nil
}
