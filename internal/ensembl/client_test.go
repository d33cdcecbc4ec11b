package ensembl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rs56116432 = `[{
	"id": "rs56116432",
	"input": "rs56116432",
	"allele_string": "C/T",
	"transcript_consequences": [
		{
			"transcript_id": "ENST00000003084",
			"gene_id": "ENSG00000001626",
			"gene_symbol": "CFTR",
			"consequence_terms": ["missense_variant", "splice_region_variant"]
		},
		{
			"transcript_id": "ENST00000426809",
			"consequence_terms": ["intron_variant"]
		}
	]
}]`

func TestFetchVariant(t *testing.T) {
	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rs56116432))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	variants, err := c.FetchVariant(context.Background(), "rs56116432")
	require.NoError(t, err)

	assert.Equal(t, "/vep/human/id/rs56116432", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	require.Len(t, variants, 1)
	assert.Equal(t, "C/T", *variants[0].AlleleString)
	assert.Len(t, variants[0].TranscriptConsequences, 2)
}

func TestFetchVariant_ErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"No variant found with ID 'rsBAD'"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.FetchVariant(context.Background(), "rsBAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "No variant found")
	assert.Equal(t, 1, calls, "failed requests are not retried")
}

func TestFetchVariant_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).FetchVariant(context.Background(), "rs1")
	assert.Error(t, err)
}

func TestFetchVariant_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchVariant(ctx, "rs1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseConsequences(t *testing.T) {
	var variants []Variant
	require.NoError(t, json.Unmarshal([]byte(rs56116432), &variants))

	rows := ParseConsequences(variants)
	require.Len(t, rows, 2)
	assert.Equal(t, ConsequenceRow{
		VariantID:    "rs56116432",
		Location:     "rs56116432",
		Alleles:      "C/T",
		TranscriptID: "ENST00000003084",
		GeneID:       "ENSG00000001626",
		GeneSymbol:   "CFTR",
		Effects:      "missense_variant,splice_region_variant",
	}, rows[0])
	assert.Equal(t, Missing, rows[1].GeneID)
	assert.Equal(t, Missing, rows[1].GeneSymbol)
	assert.Equal(t, "intron_variant", rows[1].Effects)
	assert.Len(t, rows[1].Fields(), len(Columns))
}

func TestParseConsequences_MissingVariantFields(t *testing.T) {
	var variants []Variant
	require.NoError(t, json.Unmarshal([]byte(`[
		{"transcript_consequences": [{}]},
		{"id": "rs2"}
	]`), &variants))

	rows := ParseConsequences(variants)
	require.Len(t, rows, 1)
	assert.Equal(t, ConsequenceRow{
		VariantID:    Missing,
		Location:     Missing,
		Alleles:      Missing,
		TranscriptID: Missing,
		GeneID:       Missing,
		GeneSymbol:   Missing,
		Effects:      "",
	}, rows[0])
}
