package sheet

import (
	"errors"
	"fmt"
	"io"

	"depara/internal/config"
)

// Validation describes whether a workbook can be processed.
type Validation struct {
	Valid         bool   `json:"valid"`
	Message       string `json:"message"`
	DECount       int    `json:"deCount,omitempty"`
	RastreioCount int    `json:"rastreioCount,omitempty"`
}

// Validate checks that a workbook has both sheets and that neither is empty.
// Problems are reported in the result, never as an error.
func Validate(r io.Reader, names config.Sheets) Validation {
	wb, err := ReadWorkbook(r, names)
	if err != nil {
		if errors.Is(err, ErrMissingSheet) {
			return Validation{
				Message: fmt.Sprintf("workbook must contain sheets %q and %q", names.Source, names.Candidates),
			}
		}

		return Validation{Message: fmt.Sprintf("failed to validate file: %v", err)}
	}

	if len(wb.Source) == 0 || len(wb.Candidates) == 0 {
		return Validation{
			Message:       fmt.Sprintf("sheets %q and %q must not be empty", names.Source, names.Candidates),
			DECount:       len(wb.Source),
			RastreioCount: len(wb.Candidates),
		}
	}

	return Validation{
		Valid:         true,
		Message:       "valid file",
		DECount:       len(wb.Source),
		RastreioCount: len(wb.Candidates),
	}
}
