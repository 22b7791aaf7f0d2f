// Package catalog persists which files have already been processed, backing
// the scanner's skip-existing filter across restarts. It is a small SQLite
// database; the job registry itself stays in memory and never touches it.
package catalog
