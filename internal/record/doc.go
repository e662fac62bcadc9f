// Package record defines the strictly typed page record the matcher works on
// and the normalization step that builds it from raw spreadsheet rows.
//
// Key functions:
//   - Normalize / NormalizeRow: turn header-keyed rows into Records
//   - NormalizeHeader: fold column headers so aliases match
//   - SlugFromURL: derive a slug from a URL path
//   - ExtractMeta: read title, meta description and H1 from an HTML page
package record
