/*
Package markov provides read-only first-order Markov chain tables and a small
tweet generator that walks them.

Tables are built offline from a tweet corpus and handed to this package as a
JSON artifact (or a SQLite file produced from one). Each tracked entity, the
aggregate "Overall" corpus or a single author, owns one Chain. Chains are
immutable once constructed and may be shared freely between goroutines.

Generation performs a random walk over a Chain. Successor lists keep their
duplicates, so uniform selection over a list reproduces the observed word
frequencies without any explicit weighting step. The random source is
injectable through WithRand, which makes every walk reproducible in tests.
*/
package markov
