// Package sheet reads the DE and RASTREIO record lists from a workbook or
// CSV files and writes the DE x PARA report.
//
// Workbooks are .xlsx files with one sheet per list; the first row of each
// sheet is the header. The report has a result sheet with the columns DE,
// PARA and SCORE_OVERALL and a summary sheet with run-level metrics.
package sheet
