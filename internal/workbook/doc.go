// Package workbook is the spreadsheet front end. A control workbook carries
// the run settings in a two-column key/value range and shows the pipeline
// status in a single cell.
package workbook
