// Package tweets loads daily tweet-count time series and answers the
// questions a dashboard asks of them: which authors exist, how many tweets
// fell in a date range, what the rolling average looks like and which day was
// the busiest.
package tweets
