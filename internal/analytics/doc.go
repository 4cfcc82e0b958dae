// Package analytics derives the figures shown on a factsheet from raw fund
// data: the total return, sector weights, and the chart-ready history.
package analytics
