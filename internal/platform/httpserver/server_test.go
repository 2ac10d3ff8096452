package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	trajectservice "traject/contexts/assessment-workflow/traject-service"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	trajecthttp "traject/contexts/assessment-workflow/traject-service/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*Server, trajectservice.Module) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := trajectservice.NewInMemoryModule([]entities.User{
		{UserID: "coach-1", Role: entities.RoleCoach},
		{UserID: "kc-1", Role: entities.RoleQualityCoordinator},
		{UserID: "assessor-1", Role: entities.RoleAssessor},
	}, nil, logger)
	module.Store.SetClock(fixedClock{now: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)})
	return New(module, logger, ":0"), module
}

func doRequest(t *testing.T, server *Server, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestProvisionThenAdvanceOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	admin := map[string]string{"X-User-Id": "admin-1", "X-User-Role": "beheerder"}

	rr := doRequest(t, server, http.MethodPost, "/trajects", `{"candidateId":"cand-1","coachId":"coach-1"}`, admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	coach := map[string]string{"X-User-Id": "coach-1", "X-User-Role": "coach"}
	rr = doRequest(t, server, http.MethodPost, "/trajects/cand-1/status", `{"status":"in review","note":" first pass "}`, coach)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp trajecthttp.TrajectDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Review", resp.Status)
	require.NotNil(t, resp.PreviousStatus)
	assert.Equal(t, "Collecting", *resp.PreviousStatus)
	require.NotNil(t, resp.NextStatus)
	assert.Equal(t, "Quality", *resp.NextStatus)
	require.NotNil(t, resp.StatusUpdatedAt)
	assert.Equal(t, "2024-05-06T07:08:09.000Z", *resp.StatusUpdatedAt)
	require.Len(t, resp.StatusHistory, 2)
	require.NotNil(t, resp.StatusHistory[1].Note)
	assert.Equal(t, "first pass", *resp.StatusHistory[1].Note)
}

func TestResponseRendersNullsForAbsentFields(t *testing.T) {
	server, module := newTestServer(t)
	module.Store.SeedTraject(entities.Traject{TrajectID: "cand-2", Status: entities.StatusCollecting})

	rr := doRequest(t, server, http.MethodGet, "/trajects/cand-2", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Contains(t, raw, "qualityCoordinatorId")
	assert.Nil(t, raw["qualityCoordinatorId"])
	assert.Nil(t, raw["previousStatus"])
	assert.Nil(t, raw["statusUpdatedAt"])
	assert.Equal(t, "Review", raw["nextStatus"])
}

func TestErrorClassificationMapsToStatusCodes(t *testing.T) {
	server, module := newTestServer(t)
	module.Store.SeedTraject(entities.Traject{TrajectID: "cand-3", Status: entities.StatusQuality})

	kc := map[string]string{"X-User-Id": "kc-1", "X-User-Role": "kwaliteitscoordinator"}
	coach := map[string]string{"X-User-Id": "coach-1", "X-User-Role": "coach"}

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		headers  map[string]string
		wantCode int
		wantErr  string
	}{
		{"missing user", http.MethodPost, "/trajects/cand-3/status", `{"status":"Assessment"}`, nil, http.StatusUnauthorized, "missing_user"},
		{"malformed json", http.MethodPost, "/trajects/cand-3/status", `{"status":`, kc, http.StatusBadRequest, "invalid_json"},
		{"missing status", http.MethodPost, "/trajects/cand-3/status", `{}`, kc, http.StatusBadRequest, "validation_error"},
		{"unknown status", http.MethodPost, "/trajects/cand-3/status", `{"status":"Limbo"}`, kc, http.StatusBadRequest, "validation_error"},
		{"no assessor nominated", http.MethodPost, "/trajects/cand-3/status", `{"status":"Assessment"}`, kc, http.StatusBadRequest, "validation_error"},
		{"unknown assessor", http.MethodPost, "/trajects/cand-3/status", `{"status":"Assessment","nominatedAssessorId":"ghost"}`, kc, http.StatusNotFound, "not_found"},
		{"wrong stage owner", http.MethodPost, "/trajects/cand-3/status", `{"status":"Assessment"}`, coach, http.StatusForbidden, "forbidden"},
		{"self transition", http.MethodPost, "/trajects/cand-3/status", `{"status":"quality"}`, kc, http.StatusConflict, "conflict"},
		{"unknown traject", http.MethodGet, "/trajects/nobody", "", nil, http.StatusNotFound, "not_found"},
		{"bad owner role", http.MethodGet, "/owners/janitor/x/trajects", "", nil, http.StatusBadRequest, "validation_error"},
		{"bad limit", http.MethodGet, "/owners/coach/coach-1/trajects?limit=-1", "", nil, http.StatusBadRequest, "invalid_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, tt.method, tt.path, tt.body, tt.headers)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			var resp trajecthttp.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestOwnerCasesListedFromIndex(t *testing.T) {
	server, _ := newTestServer(t)
	admin := map[string]string{"X-User-Id": "admin-1", "X-User-Role": "admin"}
	coach := map[string]string{"X-User-Id": "coach-1", "X-User-Role": "coach"}

	for _, id := range []string{"cand-a", "cand-b"} {
		rr := doRequest(t, server, http.MethodPost, "/trajects", `{"candidateId":"`+id+`","coachId":"coach-1"}`, admin)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	rr := doRequest(t, server, http.MethodPost, "/trajects/cand-a/status", `{"status":"Review"}`, coach)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, server, http.MethodGet, "/owners/coach/coach-1/trajects?status=review", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp trajecthttp.ListOwnerCasesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "cand-a", resp.Items[0].TrajectID)
	assert.Equal(t, "Review", resp.Items[0].Status)

	rr = doRequest(t, server, http.MethodGet, "/owners/begeleider/coach-1/trajects", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}
