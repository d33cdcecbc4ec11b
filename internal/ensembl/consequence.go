package ensembl

import "strings"

// Missing is reported for fields absent from a response.
const Missing = "NA"

// Columns is the header of a consequence table, in ConsequenceRow.Fields order.
var Columns = []string{
	"variant_id", "location", "alleles", "transcript_id",
	"gene_id", "gene_symbol", "effects",
}

// ConsequenceRow is one transcript consequence of one variant.
type ConsequenceRow struct {
	VariantID    string
	Location     string
	Alleles      string
	TranscriptID string
	GeneID       string
	GeneSymbol   string
	Effects      string // comma-joined consequence terms
}

// Fields returns the row values in Columns order.
func (r ConsequenceRow) Fields() []string {
	return []string{
		r.VariantID, r.Location, r.Alleles, r.TranscriptID,
		r.GeneID, r.GeneSymbol, r.Effects,
	}
}

// ParseConsequences flattens variants into one row per transcript
// consequence. Variants without consequences produce no rows.
func ParseConsequences(variants []Variant) []ConsequenceRow {
	var rows []ConsequenceRow
	for _, v := range variants {
		id, location, alleles := orMissing(v.ID), orMissing(v.Input), orMissing(v.AlleleString)
		for _, tc := range v.TranscriptConsequences {
			rows = append(rows, ConsequenceRow{
				VariantID:    id,
				Location:     location,
				Alleles:      alleles,
				TranscriptID: orMissing(tc.TranscriptID),
				GeneID:       orMissing(tc.GeneID),
				GeneSymbol:   orMissing(tc.GeneSymbol),
				Effects:      strings.Join(tc.ConsequenceTerms, ","),
			})
		}
	}
	return rows
}

func orMissing(s *string) string {
	if s == nil {
		return Missing
	}
	return *s
}
