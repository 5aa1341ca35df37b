// Package matchmaker builds the Matchmaker Exchange edit surfaces: the
// submission form for an individual, the per-match follow up status and the
// read-only results table.
package matchmaker
