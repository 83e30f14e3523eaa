// Package dispatch consumes parsed records, classifies them and fans the
// resulting events out to sinks.
package dispatch
