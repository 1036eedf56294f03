package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	dErrors "praisa/pkg/domain-errors"
)

// HTTPSource is a RecordSource over a remote hospital's REST API. The remote
// exposes the same /api/patients surface this service does, so federated
// deployments chain without translation.
type HTTPSource struct {
	baseURL    string
	sourceID   string
	httpClient *http.Client
}

// NewHTTPSource builds a retrying client for one remote hospital source.
// Transient failures retry; exhausted retries surface as SourceUnavailable
// and the dispatcher moves on to the next source.
func NewHTTPSource(baseURL, sourceID string) *HTTPSource {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: 10 * time.Second}

	return &HTTPSource{
		baseURL:    baseURL,
		sourceID:   sourceID,
		httpClient: retryClient.StandardClient(),
	}
}

// searchParam maps canonical search modes onto the remote query parameters.
var searchParam = map[models.SearchMode]string{
	models.ModeName:       "name",
	models.ModeHealthID:   "abha",
	models.ModePhone:      "phone",
	models.ModeNationalID: "aadhaar",
}

func (s *HTTPSource) Search(ctx context.Context, criteria models.SearchCriteria) ([]normalize.Raw, error) {
	param, ok := searchParam[criteria.Mode]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", criteria.Mode)
	}

	query := url.Values{}
	query.Set(param, criteria.Value)
	query.Set("hospital_id", s.sourceID)

	var body struct {
		Results []normalize.Raw `json:"results"`
		Count   int             `json:"count"`
	}
	if err := s.getJSON(ctx, "/api/patients/search?"+query.Encode(), &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

func (s *HTTPSource) GetIdentity(ctx context.Context, identityID string) (normalize.Raw, error) {
	var raw normalize.Raw
	if err := s.getJSON(ctx, "/api/patients/"+url.PathEscape(identityID), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *HTTPSource) GetVisits(ctx context.Context, identityID string) ([]normalize.Raw, error) {
	var body struct {
		Visits []normalize.Raw `json:"visits"`
	}
	if err := s.getJSON(ctx, "/api/patients/"+url.PathEscape(identityID)+"/history", &body); err != nil {
		return nil, err
	}
	return body.Visits, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build source request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeSourceUnavailable,
			fmt.Sprintf("source %s unreachable", s.sourceID))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.Newf(dErrors.CodeNotFound, "source %s: record not found", s.sourceID)
	case resp.StatusCode != http.StatusOK:
		return dErrors.Newf(dErrors.CodeSourceUnavailable,
			"source %s returned status %d", s.sourceID, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeSourceUnavailable,
			fmt.Sprintf("source %s returned malformed body", s.sourceID))
	}
	return nil
}
