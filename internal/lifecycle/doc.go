// Package lifecycle holds the assignment submission rules: who may submit, how lateness,
// attempts and penalties are computed, which status a student sees and how submission
// statistics are aggregated.
//
// Every function is pure. Time-dependent rules take the reference time as an argument so
// callers decide which clock to use.
package lifecycle
