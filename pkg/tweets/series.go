package tweets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// ColumnDate is the header of the date column.
	ColumnDate = "Date"
	// ColumnAuthor is the header of the optional author column.
	ColumnAuthor = "Author"
	// ColumnCount is the header of the tweet count column.
	ColumnCount = "Tweet Count"

	// DateLayout is the layout used for user-facing dates.
	DateLayout = "2006-01-02"
)

// DefaultRollingWindow is the window of the dashboard's rolling average, in rows.
const DefaultRollingWindow = 7

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("tweets: missing required column")

// DailyCount is one row of a tweet-count series. Author is empty for the
// overall series.
type DailyCount struct {
	Date   time.Time `json:"date"`
	Author string    `json:"author,omitempty"`
	Count  int       `json:"count"`
}

// Point is a DailyCount annotated with the trailing rolling average. RollingAvg
// is nil until a full window of rows is available.
type Point struct {
	DailyCount
	RollingAvg *float64 `json:"rolling_avg,omitempty"`
}

// Series is a tweet-count time series ordered by date. Series values are never
// modified in place; every operation returns a new slice.
type Series []DailyCount

// LoadCSV reads a series from CSV. The header must contain the Date and
// Tweet Count columns; Author is optional. Rows whose date cannot be parsed
// are skipped, while an unparseable, negative or out-of-range count is an
// error.
func LoadCSV(r io.Reader) (Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable number of fields
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Series{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dateCol, authorCol, countCol := -1, -1, -1
	for i, name := range head {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnDate:
			dateCol = i
		case ColumnAuthor:
			authorCol = i
		case ColumnCount:
			countCol = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnDate)
	}
	if countCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnCount)
	}

	var series Series
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if dateCol >= len(record) || countCol >= len(record) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(dateCol, countCol)+1, len(record))
		}

		date, ok := parseDate(record[dateCol])
		if !ok {
			continue
		}
		count, err := parseCount(record[countCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid tweet count %q: %w", line, record[countCol], err)
		}
		row := DailyCount{Date: date, Count: count}
		if authorCol >= 0 && authorCol < len(record) {
			row.Author = record[authorCol]
		}
		series = append(series, row)
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}

// ParseDate parses a user-supplied date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	if t, ok := parseDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), true
		}
	}
	return time.Time{}, false
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errNegativeCount
		}
		return n, nil
	}
	// Counts written by dataframe tooling sometimes carry a trailing ".0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number")
	}
	if f < 0 {
		return 0, errNegativeCount
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("out of range")
	}
	return int(f), nil
}

var errNegativeCount = errors.New("negative count")

// day truncates t to its calendar date in t's own location and returns that
// date at midnight UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter returns the rows whose calendar date lies in [start, end]. A zero
// start or end leaves that side of the range open.
func (s Series) Filter(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, row := range s {
		d := day(row.Date)
		if !start.IsZero() && d.Before(day(start)) {
			continue
		}
		if !end.IsZero() && d.After(day(end)) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ForAuthor returns the rows belonging to author.
func (s Series) ForAuthor(author string) Series {
	out := make(Series, 0)
	for _, row := range s {
		if row.Author == author {
			out = append(out, row)
		}
	}
	return out
}

// Authors returns the distinct authors in order of first appearance.
func (s Series) Authors() []string {
	seen := make(map[string]struct{})
	var authors []string
	for _, row := range s {
		if row.Author == "" {
			continue
		}
		if _, ok := seen[row.Author]; ok {
			continue
		}
		seen[row.Author] = struct{}{}
		authors = append(authors, row.Author)
	}
	return authors
}

// Rolling annotates every row with the mean of the trailing window rows,
// including itself. Rows before the first full window get no average. A
// window below 1 leaves every average unset.
func (s Series) Rolling(window int) []Point {
	points := make([]Point, len(s))
	var sum int
	for i, row := range s {
		points[i].DailyCount = row
		if window < 1 {
			continue
		}
		sum += row.Count
		if i >= window {
			sum -= s[i-window].Count
		}
		if i+1 >= window {
			avg := float64(sum) / float64(window)
			points[i].RollingAvg = &avg
		}
	}
	return points
}

// Points returns the series as points without rolling averages.
func (s Series) Points() []Point {
	return s.Rolling(0)
}

// Total returns the sum of all tweet counts.
func (s Series) Total() int {
	var total int
	for _, row := range s {
		total += row.Count
	}
	return total
}

// MostActive returns the row with the highest count. Ties go to the earliest
// row. The boolean is false for an empty series.
func (s Series) MostActive() (DailyCount, bool) {
	if len(s) == 0 {
		return DailyCount{}, false
	}
	best := s[0]
	for _, row := range s[1:] {
		if row.Count > best.Count {
			best = row
		}
	}
	return best, true
}

// Bounds returns the earliest and latest dates of the series.
func (s Series) Bounds() (time.Time, time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first := slices.MinFunc(s, func(a, b DailyCount) int { return a.Date.Compare(b.Date) })
	last := slices.MaxFunc(s, func(a, b DailyCount) int { return a.Date.Compare(b.Date) })
	return first.Date, last.Date, true
}
