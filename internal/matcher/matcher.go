// Package matcher defines the contract to the external identity matcher and
// its HTTP client. How a score is computed is the matcher service's concern;
// this engine only chooses the pair to compare and carries the verdict
// through.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"praisa/internal/patient/models"
	dErrors "praisa/pkg/domain-errors"
)

// Matcher scores one identity pair.
type Matcher interface {
	Match(ctx context.Context, a, b models.PatientIdentity) (models.MatchResult, error)
}

// Client calls the matcher service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a retrying matcher client.
func NewClient(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: 15 * time.Second}

	return &Client{
		baseURL:    baseURL,
		httpClient: retryClient.StandardClient(),
	}
}

// wirePatient is the record shape the matcher service accepts.
type wirePatient struct {
	PatientID     string `json:"patient_id"`
	HospitalID    string `json:"hospital_id"`
	Name          string `json:"name"`
	DOB           string `json:"dob,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
	Gender        string `json:"gender,omitempty"`
	ABHANumber    string `json:"abha_number,omitempty"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`
	Address       string `json:"address,omitempty"`
}

func toWire(identity models.PatientIdentity) wirePatient {
	return wirePatient{
		PatientID:     identity.IdentityID,
		HospitalID:    identity.SourceID,
		Name:          identity.FullName,
		DOB:           identity.DateOfBirth,
		Mobile:        identity.Phone,
		Gender:        identity.Gender,
		ABHANumber:    identity.NationalHealthID,
		AadhaarNumber: identity.NationalIDNumber,
		Address:       identity.Address,
	}
}

// Match posts both identities and decodes the verdict.
func (c *Client) Match(ctx context.Context, a, b models.PatientIdentity) (models.MatchResult, error) {
	payload, err := json.Marshal(map[string]wirePatient{
		"patient_a": toWire(a),
		"patient_b": toWire(b),
	})
	if err != nil {
		return models.MatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode match request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/match", bytes.NewReader(payload))
	if err != nil {
		return models.MatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "build match request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.MatchResult{}, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "matcher service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.MatchResult{}, dErrors.Newf(dErrors.CodeSourceUnavailable,
			"matcher service returned status %d", resp.StatusCode)
	}

	var result models.MatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.MatchResult{}, dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "matcher returned malformed body")
	}
	return result, nil
}
