package markov

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateStream(t *testing.T) {
	ctx := context.Background()
	chain := NewChain(map[string][]string{"x": {"y"}, "y": {"x"}})

	t.Run("Successful stream", func(t *testing.T) {
		stream, err := GenerateStream(ctx, chain, 5, "x")
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}

		var words []string
		for word := range stream {
			words = append(words, word)
		}

		got := strings.Join(words, " ")
		if got != "x y x y x" {
			t.Errorf("expected stream to generate %q, but got %q", "x y x y x", got)
		}
	})

	t.Run("Stream matches GenerateWords", func(t *testing.T) {
		big := createBenchmarkChain()
		stream, err := GenerateStream(ctx, big, 25, "", WithRand(newTestRand()))
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}
		var words []string
		for word := range stream {
			words = append(words, word)
		}
		want := Generate(big, 25, "", WithRand(newTestRand()))
		if got := strings.Join(words, " "); got != want {
			t.Errorf("stream and direct generation diverged:\n%q\n%q", got, want)
		}
		if countWords(want) != 25 {
			t.Errorf("expected 25 words, got %d", countWords(want))
		}
	})

	t.Run("Dead end closes the stream", func(t *testing.T) {
		stream, err := GenerateStream(ctx, NewChain(map[string][]string{"a": {"b"}}), 10, "a")
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}
		var count int
		for range stream {
			count++
		}
		if count != 2 {
			t.Errorf("expected 2 words before dead end, got %d", count)
		}
	})

	t.Run("Empty chain", func(t *testing.T) {
		_, err := GenerateStream(ctx, NewChain(nil), 10, "")
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("Stream cancellation", func(t *testing.T) {
		ctxCancel, cancel := context.WithCancel(ctx)
		defer cancel()

		streamCancel, err := GenerateStream(ctxCancel, chain, 1_000_000, "x")
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}

		// Read one word, then cancel
		<-streamCancel
		cancel()

		// The channel should now close quickly
		timeout := time.After(100 * time.Millisecond)
		for {
			select {
			case _, ok := <-streamCancel:
				if !ok {
					return
				}
			case <-timeout:
				t.Fatal("timed out waiting for stream channel to close after cancellation")
			}
		}
	})
}

func BenchmarkGenerateStream(b *testing.B) {
	chain := createBenchmarkChain()
	ctx := context.Background()
	r := newTestRand()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stream, err := GenerateStream(ctx, chain, 50, "", WithRand(r))
		if err != nil {
			b.Fatalf("GenerateStream() failed: %v", err)
		}
		// We must drain the channel to measure the full lifecycle
		var bytes int64
		for w := range stream {
			bytes += int64(len(w))
		}
		b.SetBytes(bytes)
	}
}
