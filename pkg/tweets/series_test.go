package tweets

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
	"time"
)

const overallCSV = `Date,Tweet Count
2024-01-03,5
2024-01-01,2
not-a-date,99
2024-01-02,7.0
2024-01-04,1
2024-01-05,3
2024-01-06,0
2024-01-07,10
2024-01-08,4
`

const byUserCSV = `Date,Author,Tweet Count
2024-01-01,RepSmith,1
2024-01-01,RepJones,4
2024-01-02,RepSmith,6
2024-01-03,RepJones,6
2024-01-04,RepSmith,2
`

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func mustLoad(t *testing.T, data string) Series {
	t.Helper()
	series, err := LoadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	return series
}

func TestLoadCSV(t *testing.T) {
	series := mustLoad(t, overallCSV)

	if len(series) != 8 {
		t.Fatalf("expected 8 rows (bad date dropped), got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].Date.Before(series[i-1].Date) {
			t.Fatalf("series is not sorted by date at row %d", i)
		}
	}
	if series[1].Count != 7 {
		t.Errorf("expected float count 7.0 to parse as 7, got %d", series[1].Count)
	}
	if series[0].Author != "" {
		t.Errorf("expected no author for overall series, got %q", series[0].Author)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		errorIs     error
		errContains string
	}{
		{name: "Missing date column", input: "Day,Tweet Count\n2024-01-01,1\n", errorIs: ErrMissingColumn},
		{name: "Missing count column", input: "Date,Tweets\n2024-01-01,1\n", errorIs: ErrMissingColumn},
		{name: "Bad count", input: "Date,Tweet Count\n2024-01-01,many\n", errContains: "invalid tweet count"},
		{name: "Fractional count", input: "Date,Tweet Count\n2024-01-01,1.5\n", errContains: "invalid tweet count"},
		{name: "Negative count", input: "Date,Tweet Count\n2024-01-01,-1\n", errContains: "negative count"},
		{name: "Negative float count", input: "Date,Tweet Count\n2024-01-01,-3.0\n", errContains: "negative count"},
		{name: "Huge count", input: "Date,Tweet Count\n2024-01-02,1e30\n", errContains: "out of range"},
		{name: "Infinite count", input: "Date,Tweet Count\n2024-01-02,Inf\n", errContains: "invalid tweet count"},
		{name: "Short row", input: "Date,Author,Tweet Count\n2024-01-01,RepSmith\n", errContains: "expected at least"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected an error but got none")
			}
			if tc.errorIs != nil && !errors.Is(err, tc.errorIs) {
				t.Errorf("expected %v, got %v", tc.errorIs, err)
			}
			if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
				t.Errorf("expected error to contain %q, but got %q", tc.errContains, err.Error())
			}
		})
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	series, err := LoadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d rows", len(series))
	}
}

func TestFilter(t *testing.T) {
	series := mustLoad(t, overallCSV)

	testCases := []struct {
		name  string
		start string
		end   string
		count int
		total int
	}{
		{name: "Inclusive bounds", start: "2024-01-02", end: "2024-01-04", count: 3, total: 13},
		{name: "Single day", start: "2024-01-07", end: "2024-01-07", count: 1, total: 10},
		{name: "Empty range", start: "2024-02-01", end: "2024-02-28", count: 0, total: 0},
		{name: "Inverted range", start: "2024-01-05", end: "2024-01-01", count: 0, total: 0},
		{name: "Open start", start: "", end: "2024-01-02", count: 2, total: 9},
		{name: "Open end", start: "2024-01-07", end: "", count: 2, total: 14},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var start, end time.Time
			if tc.start != "" {
				start = mustDate(t, tc.start)
			}
			if tc.end != "" {
				end = mustDate(t, tc.end)
			}
			filtered := series.Filter(start, end)
			if len(filtered) != tc.count {
				t.Errorf("expected %d rows, got %d", tc.count, len(filtered))
			}
			if filtered.Total() != tc.total {
				t.Errorf("expected total %d, got %d", tc.total, filtered.Total())
			}
		})
	}
}

func TestAuthors(t *testing.T) {
	series := mustLoad(t, byUserCSV)

	authors := series.Authors()
	if !slices.Equal(authors, []string{"RepSmith", "RepJones"}) {
		t.Errorf("Authors() = %v", authors)
	}

	smith := series.ForAuthor("RepSmith")
	if len(smith) != 3 || smith.Total() != 9 {
		t.Errorf("expected 3 rows totalling 9 for RepSmith, got %d rows totalling %d", len(smith), smith.Total())
	}
	if len(series.ForAuthor("nobody")) != 0 {
		t.Error("expected no rows for unknown author")
	}
}

func TestRolling(t *testing.T) {
	series := mustLoad(t, overallCSV)
	// Counts in date order: 2 7 5 1 3 0 10 4
	points := series.Rolling(DefaultRollingWindow)

	for i := 0; i < 6; i++ {
		if points[i].RollingAvg != nil {
			t.Errorf("row %d: expected no average before a full window, got %v", i, *points[i].RollingAvg)
		}
	}
	want := []float64{28.0 / 7.0, 30.0 / 7.0}
	for i, w := range want {
		p := points[6+i]
		if p.RollingAvg == nil {
			t.Fatalf("row %d: expected an average", 6+i)
		}
		if math.Abs(*p.RollingAvg-w) > 1e-9 {
			t.Errorf("row %d: expected %.4f, got %.4f", 6+i, w, *p.RollingAvg)
		}
	}

	for _, p := range series.Rolling(0) {
		if p.RollingAvg != nil {
			t.Fatal("expected no averages for a zero window")
		}
	}
	if got := Series(nil).Rolling(7); len(got) != 0 {
		t.Errorf("expected no points for empty series, got %d", len(got))
	}
}

func TestMostActive(t *testing.T) {
	series := mustLoad(t, byUserCSV)

	best, ok := series.ForAuthor("RepJones").MostActive()
	if !ok {
		t.Fatal("expected a most active day")
	}
	if best.Count != 6 || best.Date.Format(DateLayout) != "2024-01-03" {
		t.Errorf("unexpected most active day %+v", best)
	}

	tied := Series{
		{Date: mustDate(t, "2024-01-01"), Count: 5},
		{Date: mustDate(t, "2024-01-02"), Count: 5},
	}
	best, _ = tied.MostActive()
	if best.Date.Format(DateLayout) != "2024-01-01" {
		t.Errorf("expected earliest day to win a tie, got %s", best.Date.Format(DateLayout))
	}

	if _, ok := Series(nil).MostActive(); ok {
		t.Error("expected no most active day for empty series")
	}
}

func TestBounds(t *testing.T) {
	series := mustLoad(t, overallCSV)
	first, last, ok := series.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if first.Format(DateLayout) != "2024-01-01" || last.Format(DateLayout) != "2024-01-08" {
		t.Errorf("unexpected bounds %s..%s", first.Format(DateLayout), last.Format(DateLayout))
	}
	if _, _, ok := Series(nil).Bounds(); ok {
		t.Error("expected no bounds for empty series")
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-05", "2024-03-05 13:14:15", "2024-03-05T13:14:15Z"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", s, err)
			continue
		}
		if d.Format(DateLayout) != "2024-03-05" {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}
	if _, err := ParseDate("05/03/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestLoadCSVKeepsLocalCalendarDay(t *testing.T) {
	series := mustLoad(t, "Date,Tweet Count\n2024-01-02T23:30:00-05:00,4\n2024-01-03T00:30:00+09:00,2\n")

	day := mustDate(t, "2024-01-02")
	filtered := series.Filter(day, day)
	if len(filtered) != 1 || filtered[0].Count != 4 {
		t.Fatalf("expected the late-evening row to stay on 2024-01-02, got %+v", filtered)
	}
	if got := series[1].Date.Format(DateLayout); got != "2024-01-03" {
		t.Errorf("expected the early-morning row on 2024-01-03, got %s", got)
	}
}
