package record

import (
	"fmt"

	"depara/internal/diagnostic"
)

// Audit reports input-quality issues of one list: an empty list, records
// without a URL and URLs that appear more than once. Nothing is removed;
// the records are matched as given.
func Audit(recs []Record, sheet string, diags *diagnostic.Diagnostics) {
	if len(recs) == 0 {
		diags.AddWarning(diagnostic.CodeEmptySheet, "list has no records", sheet, "")

		return
	}

	seen := make(map[string]string, len(recs))

	for _, r := range recs {
		if r.URL == "" {
			diags.AddWarning(diagnostic.CodeMissingURL, "record has no URL", sheet, r.ID)

			continue
		}

		if first, ok := seen[r.URL]; ok {
			diags.AddInfo(diagnostic.CodeDuplicateURL,
				fmt.Sprintf("URL %s already used by record %s", r.URL, first), sheet, r.ID)

			continue
		}

		seen[r.URL] = r.ID
	}
}
