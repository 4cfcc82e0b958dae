// Package report assembles the named values a factsheet template refers to
// and applies the brand styling to the shared text blocks.
package report
