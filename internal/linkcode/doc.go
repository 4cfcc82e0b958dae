// Package linkcode produces the scannable code printed on every factsheet,
// linking to the fund's public page.
//
// Codes are written as SVG or PNG. Which one is chosen by a FormatPolicy so
// deployments without a vector viewer in their export pipeline can switch to
// PNG in one place.
package linkcode
