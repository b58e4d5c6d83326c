package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TrackedSource lists the canonical identities that currently have an
// audience worth targeting. Owned by the audience-attribute collaborator.
type TrackedSource interface {
	ListTrackedIdentities(ctx context.Context) ([]string, error)
}

type httpTrackedSource struct {
	baseURL string
	http    *http.Client
}

func NewHTTPTrackedSource(baseURL string, timeout time.Duration) TrackedSource {
	return &httpTrackedSource{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (s *httpTrackedSource) ListTrackedIdentities(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/tracked-teams", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tracked identities: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tracked identities: status %d", resp.StatusCode)
	}

	var out struct {
		Teams []string `json:"teams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

// StaticTrackedSource serves a fixed identity list. Used in tests and in
// deployments where the tracked set is configuration rather than a
// service.
type StaticTrackedSource []string

func (s StaticTrackedSource) ListTrackedIdentities(ctx context.Context) ([]string, error) {
	return s, nil
}
