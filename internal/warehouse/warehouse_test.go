package warehouse

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"go-tennis-pipeline/internal/schema"
)

func TestGCSReferenceCarriesLoadOptions(t *testing.T) {
	req := loadRequest()
	ref := gcsReference(req)

	assert.Equal(t, []string{"gs://tennis-bucket/data/atp_matches_2022.csv"}, ref.URIs)
	assert.Equal(t, bigquery.CSV, ref.SourceFormat)
	assert.EqualValues(t, 1, ref.SkipLeadingRows)
	assert.True(t, ref.AllowJaggedRows)
	assert.Len(t, ref.Schema, 49)
}

func TestConfigureLoader(t *testing.T) {
	l := &bigquery.Loader{}
	configureLoader(l, loadRequest())
	assert.Equal(t, bigquery.CreateIfNeeded, l.CreateDisposition)
	assert.Equal(t, bigquery.WriteTruncate, l.WriteDisposition)

	l = &bigquery.Loader{}
	configureLoader(l, LoadRequest{})
	assert.Equal(t, bigquery.CreateIfNeeded, l.CreateDisposition)
	assert.Equal(t, bigquery.WriteAppend, l.WriteDisposition)
}

func TestIsStatus(t *testing.T) {
	conflict := &googleapi.Error{Code: http.StatusConflict, Message: "Already Exists: Dataset p:tennise_matches_example"}
	assert.True(t, isStatus(conflict, http.StatusConflict))
	assert.True(t, isStatus(errors.Join(errors.New("wrapped"), conflict), http.StatusConflict))
	assert.False(t, isStatus(conflict, http.StatusNotFound))
	assert.False(t, isStatus(errors.New("409"), http.StatusConflict))
	assert.False(t, isStatus(nil, http.StatusConflict))
}

func TestLoadRequestValidate(t *testing.T) {
	assert.NoError(t, loadRequest().Validate())
	assert.Equal(t, "tennise_matches_example.atp_2022", loadRequest().Destination())

	tests := map[string]func(*LoadRequest){
		"no bucket":     func(r *LoadRequest) { r.Bucket = "" },
		"no objects":    func(r *LoadRequest) { r.Objects = nil },
		"bad dataset":   func(r *LoadRequest) { r.Dataset = "tennis-matches" },
		"bad table":     func(r *LoadRequest) { r.Table = "" },
		"no schema":     func(r *LoadRequest) { r.Schema = nil },
		"negative skip": func(r *LoadRequest) { r.SkipLeadingRows = -1 },
		"bad create":    func(r *LoadRequest) { r.CreateDisposition = "CREATE_SOMETIMES" },
		"bad write":     func(r *LoadRequest) { r.WriteDisposition = "WRITE_TWICE" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := loadRequest()
			mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestIdentifierRules(t *testing.T) {
	assert.NoError(t, ValidateDatasetID("tennise_matches_example"))
	assert.Error(t, ValidateDatasetID("tennis.matches"))
	assert.Error(t, ValidateDatasetID(strings.Repeat("a", 1025)))

	assert.NoError(t, ValidateTableID("atp_2022"))
	assert.NoError(t, ValidateTableID("atp-2022 final"))
	assert.Error(t, ValidateTableID("atp.2022"))
	assert.Error(t, ValidateTableID(`atp"2022`))
}

func TestSchemaTypesRoundTripThroughBigQuery(t *testing.T) {
	for _, ct := range []schema.ColumnType{schema.String, schema.Integer, schema.Float} {
		got, err := schema.FromFieldType(schema.FieldType(ct))
		assert.NoError(t, err)
		assert.Equal(t, ct, got)
	}
}
