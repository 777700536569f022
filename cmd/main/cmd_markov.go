package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/hillwatch/pkg/markov"
)

// GenerateResult is the payload of the generate command.
type GenerateResult struct {
	User   string `json:"user"`
	Seed   string `json:"seed,omitempty"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// generateParams collects the generate command's flags after defaults have
// been applied.
type generateParams struct {
	user        string
	length      int
	seed        string
	randSeed    *uint64
	temperature float64
	topK        int
}

func (p *generateParams) options(a *app) []markov.GenerateOption {
	opts := []markov.GenerateOption{
		markov.WithLogger(a.logger),
		markov.WithTemperature(p.temperature),
		markov.WithTopK(p.topK),
	}
	if p.randSeed != nil {
		opts = append(opts, markov.WithRand(rand.New(rand.NewPCG(*p.randSeed, *p.randSeed))))
	}
	return opts
}

func runGenerate(a *app, store *markov.Store, p *generateParams) *GenerateResult {
	chain := store.Lookup(p.user)
	text := markov.Generate(chain, p.length, p.seed, p.options(a)...)
	return &GenerateResult{User: p.user, Seed: p.seed, Length: p.length, Text: text}
}

// streamGenerate prints words as they are produced, on a single line.
func streamGenerate(ctx context.Context, a *app, store *markov.Store, p *generateParams) error {
	// Cancelling on return stops the producer if a write fails mid-stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	words, err := markov.GenerateStream(ctx, store.Lookup(p.user), p.length, p.seed, p.options(a)...)
	if errors.Is(err, markov.ErrInsufficientData) {
		_, err = fmt.Fprintf(a.out, "> %s\n", markov.InsufficientDataMessage)
		return err
	}
	if err != nil {
		return err
	}

	if _, err = io.WriteString(a.out, ">"); err != nil {
		return err
	}
	for word := range words {
		if _, err = fmt.Fprintf(a.out, " %s", word); err != nil {
			return err
		}
	}
	if _, err = io.WriteString(a.out, "\n"); err != nil {
		return err
	}
	return ctx.Err()
}

func generateCmd(opts *rootOptions) *cobra.Command {
	var (
		p        generateParams
		randSeed uint64
		stream   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a tweet in the style of a user or of everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if stream && a.json {
				return errors.New("--stream cannot be combined with --json")
			}
			if !cmd.Flags().Changed("length") {
				p.length = a.config.Generate.DefaultLength
			}
			if !cmd.Flags().Changed("temperature") {
				p.temperature = a.config.Generate.Temperature
			}
			if !cmd.Flags().Changed("top-k") {
				p.topK = a.config.Generate.TopK
			}
			if cmd.Flags().Changed("rand-seed") {
				p.randSeed = &randSeed
			}

			store, err := loadChains(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}

			if stream {
				return streamGenerate(cmd.Context(), a, store, &p)
			}

			result := runGenerate(a, store, &p)
			return a.render(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "> %s\n", result.Text)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&p.user, "user", markov.OverallEntity, "user whose chain to use, or Overall")
	cmd.Flags().IntVar(&p.length, "length", 0, "maximum number of words (default from config)")
	cmd.Flags().StringVar(&p.seed, "seed", "", "starting word; ignored if the chain does not know it")
	cmd.Flags().Uint64Var(&randSeed, "rand-seed", 0, "seed for reproducible output")
	cmd.Flags().Float64Var(&p.temperature, "temperature", 1.0, "sampling temperature (default from config)")
	cmd.Flags().IntVar(&p.topK, "top-k", 0, "restrict each step to the K most frequent successors (default from config)")
	cmd.Flags().BoolVar(&stream, "stream", false, "print words as they are generated")
	return cmd
}

// defaultDatabasePath is where import writes when no database is configured.
func defaultDatabasePath(cfg *DataConfig) string {
	if cfg.ChainsDatabasePath != "" {
		return cfg.Resolve(cfg.ChainsDatabasePath)
	}
	return filepath.Join(cfg.DataDir, "markov_chains.db")
}

// importChains converts the JSON chain artifact at in into a SQLite database
// at out, pruning transitions seen minFreq times or fewer.
func importChains(ctx context.Context, a *app, in, out string, minFreq int) (*markov.StoreStats, error) {
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open chains: %w", err)
	}
	store, err := markov.LoadStore(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to load chains from %s: %w", in, err)
	}
	store.SetLogger(a.logger)
	if minFreq > 0 {
		store = store.Prune(minFreq)
	}

	db, err := openChainDB(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			a.logger.Error("Failed to close chain database", "error", err)
		}
	}()

	if err = markov.SetupSchema(db); err != nil {
		return nil, err
	}
	if err = store.Save(ctx, db); err != nil {
		return nil, err
	}
	return store.Stats(), nil
}

func importCmd(opts *rootOptions) *cobra.Command {
	var (
		in      string
		out     string
		minFreq int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert the JSON chain artifact into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if in == "" {
				in = a.config.Data.Resolve(a.config.Data.ChainsPath)
			}
			if out == "" {
				out = defaultDatabasePath(a.config.Data)
			}
			stats, err := importChains(cmd.Context(), a, in, out, minFreq)
			if err != nil {
				return err
			}
			a.logger.Info("Chains imported", "database", out, "entities", len(stats.Entities))
			return a.render(stats, func(w io.Writer) error {
				return writeStoreStats(w, stats)
			})
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "JSON chain artifact (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "SQLite database to write (default from config, or markov_chains.db in the data dir)")
	cmd.Flags().IntVar(&minFreq, "min-freq", 0, "drop transitions seen this many times or fewer")
	return cmd
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		out     string
		minFreq int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded chains as a JSON artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			store, err := loadChains(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}
			if minFreq > 0 {
				store = store.Prune(minFreq)
			}
			if out == "-" {
				return store.Export(a.out)
			}

			var buf bytes.Buffer
			if err = store.Export(&buf); err != nil {
				return fmt.Errorf("failed to export chains: %w", err)
			}
			if err = atomic.WriteFile(out, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			a.logger.Info("Chains written", "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "-", "file to write, or - for stdout")
	cmd.Flags().IntVar(&minFreq, "min-freq", 0, "drop transitions seen this many times or fewer")
	return cmd
}

func writeStoreStats(w io.Writer, stats *markov.StoreStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tWORDS\tTRANSITIONS\tUNIQUE")
	for _, entity := range stats.Entities {
		cs := stats.Stats[entity]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", entity, cs.Words, cs.Transitions, cs.UniqueTransitions)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t\n", stats.Words, stats.Transitions)
	return tw.Flush()
}

func statsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of the chain store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			store, err := loadChains(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}
			stats := store.Stats()
			return a.render(stats, func(w io.Writer) error {
				return writeStoreStats(w, stats)
			})
		},
	}
}

// VersionInfo is the payload of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func versionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &app{out: cmd.OutOrStdout(), json: opts.jsonOutput}
			info := VersionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
			return a.render(info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "hillwatch %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildDate)
				return err
			})
		},
	}
}
