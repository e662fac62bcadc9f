package match

import "depara/internal/record"

//go:generate go tool stringer -type=Field -trimprefix=Field -output=field_string.go

// Field identifies one of the compared record fields. Its value is the index
// of the field's weight in a WeightVector.
type Field int

const (
	FieldSlug Field = iota
	FieldTitle
	FieldDescription
	FieldH1

	// FieldTotal is the number of compared fields.
	FieldTotal = int(iota)
)

// Fields lists the compared fields in weight order.
var Fields = [FieldTotal]Field{FieldSlug, FieldTitle, FieldDescription, FieldH1}

// FieldScoreBreakdown holds the per-field similarity of a (source, candidate)
// pair. Each score is in [0,1].
type FieldScoreBreakdown struct {
	Slug        float64 `json:"slugScore"`
	Title       float64 `json:"titleScore"`
	Description float64 `json:"descScore"`
	H1          float64 `json:"h1Score"`
}

// Get returns the score of a single field.
func (b FieldScoreBreakdown) Get(f Field) float64 {
	switch f {
	case FieldSlug:
		return b.Slug
	case FieldTitle:
		return b.Title
	case FieldDescription:
		return b.Description
	case FieldH1:
		return b.H1
	default:
		return 0
	}
}

// ScoreFields compares each field of src with the same field of cand.
// The four scores are independent of each other.
func ScoreFields(src, cand record.Record) FieldScoreBreakdown {
	return FieldScoreBreakdown{
		Slug:        Similarity(src.Slug, cand.Slug),
		Title:       Similarity(src.Title, cand.Title),
		Description: Similarity(src.Description, cand.Description),
		H1:          Similarity(src.H1, cand.H1),
	}
}

// FieldValue returns the value of field f in r.
func FieldValue(r record.Record, f Field) string {
	switch f {
	case FieldSlug:
		return r.Slug
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldH1:
		return r.H1
	default:
		return ""
	}
}
