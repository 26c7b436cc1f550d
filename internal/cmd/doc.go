// Package cmd implements the bigdir command line interface.
//
// Commands:
//   - ls:     stream the entry names of one or more directories
//   - count:  count entries without holding names in memory
//   - seed:   generate a fixture directory with many empty files
//   - bench:  compare Readdirnames against the raw and stream backends
//   - report: compare stored bench results and flag regressions
package cmd
