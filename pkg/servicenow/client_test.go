package servicenow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchEligibleIncidents(t *testing.T) {
	var gotRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": [
			{"sys_id": "abc123", "number": "INC0010001", "short_description": "Disk space alert", "description": "/var is full", "state": "1"},
			{"sys_id": "def456", "number": "INC0010002", "short_description": "CPU spike", "description": "load average high", "state": "2"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "svc-user", "svc-pass", 5*time.Second)
	incidents, err := client.FetchEligibleIncidents(context.Background(), "group-sys-id")

	require.NoError(t, err, "Expected fetch to succeed")
	require.Len(t, incidents, 2, "Expected both incidents from the result envelope")
	assert.Equal(t, "abc123", incidents[0].SysID, "Expected first incident in response order")
	assert.Equal(t, "INC0010002", incidents[1].Number, "Expected second incident in response order")

	require.NotNil(t, gotRequest, "Expected the server to receive a request")
	assert.Equal(t, http.MethodGet, gotRequest.Method, "Expected a GET request")
	assert.Equal(t, IncidentTablePath, gotRequest.URL.Path, "Expected the incident table path")

	query := gotRequest.URL.Query()
	assert.Equal(t, "assignment_group=group-sys-id^assigned_toISEMPTY^stateNOT IN3,4,6,7",
		query.Get("sysparm_query"), "Expected the eligible incident query")
	assert.Equal(t, EligibleFields, query.Get("sysparm_fields"), "Expected the fixed field projection")
	assert.Equal(t, "100", query.Get("sysparm_limit"), "Expected the page limit")

	username, password, ok := gotRequest.BasicAuth()
	require.True(t, ok, "Expected basic auth on the request")
	assert.Equal(t, "svc-user", username, "Expected configured username")
	assert.Equal(t, "svc-pass", password, "Expected configured password")
	assert.Equal(t, "application/json", gotRequest.Header.Get("Accept"), "Expected JSON accept header")
}

func TestClient_FetchEligibleIncidents_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "User Not Authenticated"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "svc-user", "bad-pass", 5*time.Second)
	incidents, err := client.FetchEligibleIncidents(context.Background(), "group-sys-id")

	assert.Nil(t, incidents, "Expected no incidents on rejection")
	require.Error(t, err, "Expected an error for a non-2xx response")
	assert.ErrorIs(t, err, ErrRemoteRejected, "Expected the rejection sentinel")
	assert.Contains(t, err.Error(), "401", "Expected the status code in the error")
}

func TestClient_FetchEligibleIncidents_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "svc-user", "svc-pass", time.Second)
	incidents, err := client.FetchEligibleIncidents(context.Background(), "group-sys-id")

	assert.Nil(t, incidents, "Expected no incidents on transport failure")
	require.Error(t, err, "Expected an error when the remote store is unreachable")
	assert.ErrorIs(t, err, ErrRemoteUnavailable, "Expected the unavailable sentinel")
}

func TestClient_ResolveIncident(t *testing.T) {
	var gotRequest *http.Request
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(r.Context())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody), "Expected a JSON body")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": {"sys_id": "abc123"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "svc-user", "svc-pass", 5*time.Second)
	payload := NewResolutionPayload("Cleared temp files", "Auto-resolved", "OPS-42", "", "")
	err := client.ResolveIncident(context.Background(), "abc123", payload)

	require.NoError(t, err, "Expected resolve to succeed")
	require.NotNil(t, gotRequest, "Expected the server to receive a request")
	assert.Equal(t, http.MethodPatch, gotRequest.Method, "Expected a PATCH request")
	assert.Equal(t, IncidentTablePath+"/abc123", gotRequest.URL.Path, "Expected the incident record path")
	assert.Equal(t, "application/json", gotRequest.Header.Get("Content-Type"), "Expected JSON content type")

	assert.Equal(t, StateResolved, gotBody["state"], "Expected the resolved state code")
	assert.Equal(t, CloseCodeSolved, gotBody["close_code"], "Expected the fixed close code")
	assert.Equal(t, "Cleared temp files", gotBody["close_notes"], "Expected the closure note")
	assert.Equal(t, "Auto-resolved", gotBody["work_notes"], "Expected the work notes")
	assert.Equal(t, "OPS-42", gotBody["u_jira_reference"], "Expected the reference field")
	assert.NotContains(t, gotBody, "parent_incident", "Expected empty optional fields to stay off the wire")
	assert.NotContains(t, gotBody, "u_kb_article", "Expected empty optional fields to stay off the wire")
}

func TestClient_ResolveIncident_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "Insufficient rights"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "svc-user", "svc-pass", 5*time.Second)
	err := client.ResolveIncident(context.Background(), "abc123", NewResolutionPayload("", "", "", "", ""))

	require.Error(t, err, "Expected an error for a non-2xx response")
	assert.ErrorIs(t, err, ErrRemoteRejected, "Expected the rejection sentinel")
}

func TestNewResolutionPayload_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(NewResolutionPayload("", "", "", "", ""))
	require.NoError(t, err, "Expected payload to marshal")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields), "Expected payload to round-trip")

	assert.Len(t, fields, 2, "Expected only the mandatory fields")
	assert.Equal(t, StateResolved, fields["state"], "Expected the resolved state code")
	assert.Equal(t, CloseCodeSolved, fields["close_code"], "Expected the fixed close code")
}
