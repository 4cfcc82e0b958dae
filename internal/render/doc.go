// Package render turns a report bundle into a workbook and the workbook into
// a paginated PDF.
//
// Templates are ordinary .xlsx files. A cell holding only {{ name }} is
// replaced by the named value: text and numbers in place, styled text as rich
// text, tables expanding down and to the right from the cell, link artifacts
// as pictures. {{ name | chart }} draws a line chart of a date-indexed table.
// Placeholders inside longer text are substituted as plain text.
//
// Export prints an HTML rendition of the workbook with headless Chrome. The
// browser is started once per run by a Session and reused for every fund.
package render
