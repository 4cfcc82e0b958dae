// Package pipeline sequences a report run: select funds, then for each fund
// load data, derive analytics, generate the link artifact, assemble the
// bundle, render, export and optionally publish.
//
// A run holds exactly one rendering host for its whole duration. Funds are
// processed one at a time in selection order. Every milestone is reported as
// a status text to a StatusSink, and the sink is cleared on every exit path.
package pipeline
