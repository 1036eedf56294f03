package matcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praisa/internal/patient/models"
	dErrors "praisa/pkg/domain-errors"
)

func TestClientMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/match", r.URL.Path)

		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "HA001", body["patient_a"]["patient_id"])
		assert.Equal(t, "HB001", body["patient_b"]["patient_id"])
		assert.Equal(t, "12-3456-7890-1234", body["patient_a"]["abha_number"])

		json.NewEncoder(w).Encode(map[string]any{
			"match_score":    100.0,
			"confidence":     "high",
			"method":         "ABHA_EXACT",
			"recommendation": "MATCH",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Match(context.Background(),
		models.PatientIdentity{IdentityID: "HA001", SourceID: "hospital_a", FullName: "Ramesh Singh", NationalHealthID: "12-3456-7890-1234"},
		models.PatientIdentity{IdentityID: "HB001", SourceID: "hospital_b", FullName: "Ramehs Singh"},
	)
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, "ABHA_EXACT", result.Method)
	assert.Equal(t, "MATCH", result.Recommendation)
}

func TestClientMatchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Match(context.Background(), models.PatientIdentity{}, models.PatientIdentity{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSourceUnavailable))
}
