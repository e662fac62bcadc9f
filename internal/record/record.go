package record

import (
	"strconv"
	"strings"
)

// Record is a single page on either side of the migration: a DE (source) URL
// or a RASTREIO (candidate) URL. All textual fields are always present; a
// missing value is the empty string.
type Record struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Slug        string `json:"slug"`
	Title       string `json:"meta_title"`
	Description string `json:"meta_description"`
	H1          string `json:"h1"`
}

// Row is a raw spreadsheet row keyed by its column header.
type Row map[string]string

// Column aliases in priority order; the first non-empty value wins.
var (
	idColumns          = []string{"id"}
	urlColumns         = []string{"url"}
	slugColumns        = []string{"slug"}
	titleColumns       = []string{"meta_title", "title"}
	descriptionColumns = []string{"meta_description", "description", "meta"}
	h1Columns          = []string{"h1"}
)

// Normalize converts raw rows into Records. The index of each row is used
// for the default ID.
func Normalize(rows []Row) []Record {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		out = append(out, NormalizeRow(row, i))
	}

	return out
}

// NormalizeRow converts a single raw row into a Record.
//
// Header keys are folded with NormalizeHeader before lookup, so "Meta Title",
// "meta_title" and "MetaTitle" all resolve to the title field.
func NormalizeRow(row Row, index int) Record {
	folded := make(map[string]string, len(row))
	for k, v := range row {
		key := NormalizeHeader(k)

		v = strings.TrimSpace(v)
		if prev := folded[key]; prev != "" && (v == "" || prev < v) {
			// Two headers folded to the same key: keep a deterministic winner.
			continue
		}

		folded[key] = v
	}

	rec := Record{
		ID:          pick(folded, idColumns),
		URL:         pick(folded, urlColumns),
		Slug:        pick(folded, slugColumns),
		Title:       pick(folded, titleColumns),
		Description: pick(folded, descriptionColumns),
		H1:          pick(folded, h1Columns),
	}

	if rec.ID == "" {
		rec.ID = "row_" + strconv.Itoa(index)
	}

	if rec.Slug == "" {
		rec.Slug = SlugFromURL(rec.URL)
	}

	return rec
}

// MissingMeta reports whether any of the page metadata fields is empty.
func (r Record) MissingMeta() bool {
	return r.Title == "" || r.Description == "" || r.H1 == ""
}

// WithMeta returns a copy of r with its empty metadata fields filled from m.
// Fields that already carry a value are left untouched.
func (r Record) WithMeta(m PageMeta) Record {
	if r.Title == "" {
		r.Title = m.Title
	}

	if r.Description == "" {
		r.Description = m.Description
	}

	if r.H1 == "" {
		r.H1 = m.H1
	}

	return r
}

func pick(folded map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := folded[NormalizeHeader(alias)]; v != "" {
			return v
		}
	}

	return ""
}
