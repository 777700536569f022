package main

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/CTAG07/hillwatch/pkg/markov"
	"github.com/CTAG07/hillwatch/pkg/tweets"
	"github.com/CTAG07/hillwatch/pkg/wordcloud"
)

// NoDataInRangeMessage is printed when a date filter leaves no rows.
const NoDataInRangeMessage = "No data in the selected range."

// userOptions returns "Overall" followed by every author of the per-user series.
func userOptions(ds *Dataset) []string {
	return append([]string{markov.OverallEntity}, ds.ByUser.Authors()...)
}

// seriesFor returns the series shown for user. Unknown users are an error.
func seriesFor(ds *Dataset, user string) (tweets.Series, error) {
	if user == markov.OverallEntity {
		return ds.Overall, nil
	}
	if !slices.Contains(ds.ByUser.Authors(), user) {
		return nil, fmt.Errorf("unknown user %q", user)
	}
	return ds.ByUser.ForAuthor(user), nil
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = tweets.ParseDate(startStr); err != nil {
			return start, end, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if endStr != "" {
		if end, err = tweets.ParseDate(endStr); err != nil {
			return start, end, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return start, end, fmt.Errorf("start date %s is after end date %s", startStr, endStr)
	}
	return start, end, nil
}

func usersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the selectable users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := LoadDataset(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}
			users := userOptions(ds)
			return a.render(users, func(w io.Writer) error {
				for _, user := range users {
					if _, err := fmt.Fprintln(w, user); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// TweetsResult is the payload of the tweets command.
type TweetsResult struct {
	User       string             `json:"user"`
	Start      string             `json:"start,omitempty"`
	End        string             `json:"end,omitempty"`
	Points     []tweets.Point     `json:"points"`
	Total      int                `json:"total"`
	MostActive *tweets.DailyCount `json:"most_active,omitempty"`

	// DataStart and DataEnd bound the user's whole series, whatever the filter.
	DataStart string `json:"data_start,omitempty"`
	DataEnd   string `json:"data_end,omitempty"`
}

// buildTweetsResult filters series to [start, end] and summarizes it. The most
// active day is only reported for individual users.
func buildTweetsResult(series tweets.Series, user string, start, end time.Time, window int) *TweetsResult {
	filtered := series.Filter(start, end)
	result := &TweetsResult{User: user, Total: filtered.Total()}
	if !start.IsZero() {
		result.Start = start.Format(tweets.DateLayout)
	}
	if !end.IsZero() {
		result.End = end.Format(tweets.DateLayout)
	}
	if first, last, ok := series.Bounds(); ok {
		result.DataStart = first.Format(tweets.DateLayout)
		result.DataEnd = last.Format(tweets.DateLayout)
	}
	if window > 0 {
		result.Points = filtered.Rolling(window)
	} else {
		result.Points = filtered.Points()
	}
	if user != markov.OverallEntity {
		if best, ok := filtered.MostActive(); ok {
			result.MostActive = &best
		}
	}
	return result
}

func writeTweetsResult(w io.Writer, result *TweetsResult) error {
	if len(result.Points) == 0 {
		if _, err := fmt.Fprintln(w, NoDataInRangeMessage); err != nil {
			return err
		}
		return writeAvailableRange(w, result)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTWEETS\tROLLING AVG")
	for _, p := range result.Points {
		avg := "-"
		if p.RollingAvg != nil {
			avg = fmt.Sprintf("%.2f", *p.RollingAvg)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Date.Format(tweets.DateLayout), p.Count, avg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nTotal tweets: %d\n", result.Total); err != nil {
		return err
	}
	if result.MostActive != nil {
		if _, err := fmt.Fprintf(w, "Most active day: %s (%d tweets)\n",
			result.MostActive.Date.Format(tweets.DateLayout), result.MostActive.Count); err != nil {
			return err
		}
	}
	return writeAvailableRange(w, result)
}

func writeAvailableRange(w io.Writer, result *TweetsResult) error {
	if result.DataStart == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "Data available: %s to %s\n", result.DataStart, result.DataEnd)
	return err
}

func tweetsCmd(opts *rootOptions) *cobra.Command {
	var (
		user    string
		start   string
		end     string
		rolling bool
		window  int
	)

	cmd := &cobra.Command{
		Use:   "tweets",
		Short: "Show tweets per day for a user or overall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("start") {
				start = a.config.Dashboard.DefaultStart
			}
			if !cmd.Flags().Changed("end") {
				end = a.config.Dashboard.DefaultEnd
			}
			startDate, endDate, err := parseRange(start, end)
			if err != nil {
				return err
			}

			ds, err := LoadDataset(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}
			series, err := seriesFor(ds, user)
			if err != nil {
				return err
			}

			win := 0
			if rolling {
				win = window
				if win == 0 {
					win = a.config.Dashboard.RollingWindow
				}
			}
			result := buildTweetsResult(series, user, startDate, endDate, win)
			a.logger.Debug("Tweet series filtered",
				"user", user,
				"rows", len(result.Points),
				"total", result.Total,
			)
			return a.render(result, func(w io.Writer) error {
				return writeTweetsResult(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", markov.OverallEntity, "user to show, or Overall")
	cmd.Flags().StringVar(&start, "start", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day of the range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&rolling, "rolling", false, "include the rolling average")
	cmd.Flags().IntVar(&window, "window", 0, "rolling average window in days (default from config)")
	return cmd
}

// WordCloudResult is the payload of the wordcloud command.
type WordCloudResult struct {
	User    string                `json:"user"`
	HasData bool                  `json:"has_data"`
	Words   []wordcloud.WordCount `json:"words,omitempty"`
}

func buildWordCloudResult(texts *wordcloud.Texts, user string, top int) *WordCloudResult {
	result := &WordCloudResult{User: user}
	text, ok := texts.For(user)
	if !ok {
		return result
	}
	result.HasData = true
	result.Words = wordcloud.TopWords(text, top)
	return result
}

func writeWordCloudResult(w io.Writer, result *WordCloudResult) error {
	if !result.HasData {
		_, err := fmt.Fprintln(w, wordcloud.NoDataMessage)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tCOUNT")
	for _, wc := range result.Words {
		fmt.Fprintf(tw, "%s\t%d\n", wc.Word, wc.Count)
	}
	return tw.Flush()
}

func wordcloudCmd(opts *rootOptions) *cobra.Command {
	var (
		user string
		top  int
	)

	cmd := &cobra.Command{
		Use:   "wordcloud",
		Short: "Show the most frequent words for a user or overall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				top = a.config.Dashboard.TopWords
			}
			ds, err := LoadDataset(cmd.Context(), a.config.Data, a.logger)
			if err != nil {
				return err
			}
			result := buildWordCloudResult(ds.WordClouds, user, top)
			return a.render(result, func(w io.Writer) error {
				return writeWordCloudResult(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", markov.OverallEntity, "user to show, or Overall")
	cmd.Flags().IntVar(&top, "top", 0, "number of words to show, 0 for all (default from config)")
	return cmd
}
