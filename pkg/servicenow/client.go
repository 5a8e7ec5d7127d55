package servicenow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// Error kinds for remote store failures. Callers distinguish transport
// failures from explicit rejections, but must treat both as "this incident
// was not resolved": the table API makes no partial-application guarantee,
// so blind retries are not safe.
var (
	// ErrRemoteUnavailable marks network or timeout failures
	ErrRemoteUnavailable = errors.New("remote incident store unavailable")

	// ErrRemoteRejected marks non-2xx responses from the remote store
	ErrRemoteRejected = errors.New("remote incident store rejected request")
)

// Client handles HTTP communication with the ServiceNow table API.
// It isolates transport concerns (auth, timeouts, status handling) so the
// pipeline never deals with HTTP directly.
type Client struct {
	httpClient  *http.Client
	incidentURL string
	username    string
	password    string
}

// NewClient creates a new table API client for the given instance.
// The timeout applies per request; zero selects the default.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		incidentURL: baseURL + IncidentTablePath,
		username:    username,
		password:    password,
	}
}

// FetchEligibleIncidents queries the remote store for unassigned incidents of
// the given assignment group that are not closed, resolved, or cancelled.
// At most one page (100 incidents) is returned with a fixed field projection.
func (c *Client) FetchEligibleIncidents(ctx context.Context, assignmentGroupID string) ([]Incident, error) {
	params := url.Values{
		"sysparm_query":  {fmt.Sprintf(EligibleQueryTemplate, assignmentGroupID)},
		"sysparm_fields": {EligibleFields},
		"sysparm_limit":  {strconv.Itoa(EligibleLimit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.incidentURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFetch, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ErrMsgFetch, ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ErrMsgFetch, ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: status %d: %s", ErrMsgFetch, ErrRemoteRejected, resp.StatusCode, string(body))
	}

	var list incidentListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDecode, err)
	}

	logger.Debugf("Fetched %d eligible incidents for group %s", len(list.Result), assignmentGroupID)
	return list.Result, nil
}

// ResolveIncident sends a partial update that closes the incident as
// resolved. Only non-empty payload fields reach the wire. Any returned error
// means the incident was not resolved.
func (c *Client) ResolveIncident(ctx context.Context, sysID string, payload ResolutionPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgResolve, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.incidentURL+"/"+sysID, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgResolve, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", ErrMsgResolve, ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %w: status %d: %s", ErrMsgResolve, ErrRemoteRejected, resp.StatusCode, string(body))
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.Debugf("Applied resolution update to incident %s", sysID)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}
