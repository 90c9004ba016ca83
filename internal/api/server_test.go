package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/ledger-reconciler/internal/api"
	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

const (
	csvA = "CUIT;Monto Retenido\n20-12345678-9;1.234,50\n30-71234567-1;200\n30-71234567-1;300\n27-99999999-0;510\n"
	csvB = "Cuit,Crédito\n20123456789,1234.50\n30712345671,\"500,00\"\n27999999990,500\n"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := logging.Discard()
	sessions := session.NewManager(config.SessionsConfig{TTL: time.Hour, CleanupInterval: time.Hour}, repo, logger)
	server := api.NewServer(api.DefaultConfig(), sessions, repo, logger)
	return server, repo
}

func do(t *testing.T, server *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, server *api.Server, sessionID, source, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/sources/"+source, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// reconciledSession creates a session, uploads both fixtures and runs the
// automatic pass.
func reconciledSession(t *testing.T, server *api.Server) string {
	t.Helper()
	rec := do(t, server, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[dto.SessionResponse](t, rec).ID

	rec = upload(t, server, id, "a", "arca.csv", csvA)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	srcA := decode[dto.SourceResponse](t, rec)
	rec = upload(t, server, id, "b", "ledger.csv", csvB)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	srcB := decode[dto.SourceResponse](t, rec)

	rec = do(t, server, http.MethodPost, "/api/sessions/"+id+"/reconcile", dto.ReconcileRequest{
		ColumnsA: srcA.Suggested,
		ColumnsB: srcB.Suggested,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_SessionLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.SessionResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Reconciled)

	t.Run("upload suggests columns", func(t *testing.T) {
		rec := upload(t, server, created.ID, "a", "arca.csv", csvA)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		src := decode[dto.SourceResponse](t, rec)
		assert.Equal(t, 4, src.Rows)
		assert.Equal(t, "CUIT", src.Suggested.Identifier)
		assert.Equal(t, "Monto Retenido", src.Suggested.Amount)
	})

	t.Run("upload rejects unknown source and format", func(t *testing.T) {
		rec := upload(t, server, created.ID, "c", "arca.csv", csvA)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = upload(t, server, created.ID, "b", "ledger.pdf", csvB)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reconcile needs both sources", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/sessions/"+created.ID+"/reconcile", dto.ReconcileRequest{})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeConflict, decode[dto.APIError](t, rec).Code)
	})

	t.Run("get reports loaded sources", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/sessions/"+created.ID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[dto.SessionResponse](t, rec)
		assert.Contains(t, got.Sources, "a")
		assert.NotContains(t, got.Sources, "b")
	})

	t.Run("delete ends the session", func(t *testing.T) {
		rec := do(t, server, http.MethodDelete, "/api/sessions/"+created.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, server, http.MethodGet, "/api/sessions/"+created.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_ReconcileFlow(t *testing.T) {
	server, repo := newTestServer(t)
	id := reconciledSession(t, server)
	base := "/api/sessions/" + id

	t.Run("overview counts the automatic match", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, base+"/overview", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		o := decode[dto.OverviewResponse](t, rec)
		assert.Equal(t, 1, o.ReconciledCount)
		assert.Equal(t, 3, o.PendingCount)
		assert.Equal(t, 2, o.UnmatchedCount)
		assert.InDelta(t, 1234.5, o.ReconciledAmount, 1e-9)
	})

	t.Run("records filter by status and provider", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, base+"/records?source=a&status=pending&provider=30-71234567-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[dto.RecordListResponse](t, rec)
		require.Equal(t, 2, list.Count)
		assert.Equal(t, 1, list.Records[0].Index)
		assert.Equal(t, "30712345671", list.Records[0].Identifier)
		assert.InDelta(t, 200.0, list.Records[0].Amount, 1e-9)

		rec = do(t, server, http.MethodGet, base+"/records?source=a&status=done", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("providers list and details", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, base+"/providers?q=307", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"30712345671"}, decode[dto.ProviderListResponse](t, rec).Providers)

		rec = do(t, server, http.MethodGet, base+"/providers/30-71234567-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decode[dto.ProviderResponse](t, rec)
		assert.Len(t, p.PendingA, 2)
		assert.Len(t, p.UnmatchedB, 1)
		assert.InDelta(t, 0.0, p.Difference, 1e-9)
	})

	t.Run("unbalanced commit is rejected", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, base+"/selection/toggle", map[string]any{"bucket": "pending", "index": 3})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = do(t, server, http.MethodPost, base+"/selection/toggle", map[string]any{"bucket": "unmatched", "index": 2})
		require.Equal(t, http.StatusOK, rec.Code)
		toggled := decode[dto.ToggleResponse](t, rec)
		assert.True(t, toggled.Selected)
		assert.False(t, toggled.Selection.Preview.CanReconcile)

		rec = do(t, server, http.MethodPost, base+"/selection/commit", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeUnbalanced, decode[dto.APIError](t, rec).Code)

		rec = do(t, server, http.MethodDelete, base+"/selection", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[dto.SelectionResponse](t, rec).Pending)
	})

	t.Run("provider focus restricts the selection", func(t *testing.T) {
		rec := do(t, server, http.MethodPut, base+"/provider", dto.ProviderRequest{Identifier: "30-71234567-1"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "30712345671", decode[dto.SelectionResponse](t, rec).Provider)

		rec = do(t, server, http.MethodPost, base+"/selection/toggle", map[string]any{"bucket": "pending", "index": 3})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var matchID string
	t.Run("balanced manual group commits and is journaled", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, base+"/selection/select", dto.SelectRequest{Bucket: "pending", Indices: []int{1, 2}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = do(t, server, http.MethodPost, base+"/selection/toggle", map[string]any{"bucket": "unmatched", "index": 1})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[dto.ToggleResponse](t, rec).Selection.Preview.CanReconcile)

		rec = do(t, server, http.MethodPost, base+"/selection/commit", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		matchID = decode[dto.CommitResponse](t, rec).MatchID
		assert.True(t, strings.HasPrefix(matchID, "manual_"))

		events := repo.Events()
		require.Len(t, events, 1)
		assert.Equal(t, storage.ActionManualReconcile, events[0].Action)
		assert.Equal(t, matchID, events[0].MatchID)
	})

	t.Run("runs expose the journal", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/runs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		runs := decode[dto.RunListResponse](t, rec)
		require.Equal(t, 1, runs.Count)
		assert.Equal(t, 1, runs.Runs[0].AutoMatches)
		assert.Equal(t, storage.RunStatusCompleted, runs.Runs[0].Status)

		rec = do(t, server, http.MethodGet, "/api/runs/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[dto.RunDetailResponse](t, rec).Events, 1)

		rec = do(t, server, http.MethodGet, "/api/runs/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, server, http.MethodGet, "/api/runs/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider export holds only reconciled records", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, base+"/export?provider=30712345671", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "provider_report_30712345671.xlsx")
		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Reconciled"}, f.GetSheetList())
	})

	t.Run("general export as csv", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, base+"/export?format=csv&sheet=Pending", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "CUIT,Monto Retenido,Status", strings.TrimSpace(lines[0]))

		rec = do(t, server, http.MethodGet, base+"/export?format=pdf", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("dereconcile reverts the manual group", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, base+"/selection/toggle", map[string]any{"bucket": "reconciled", "index": 2})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, server, http.MethodPost, base+"/selection/dereconcile", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[dto.DereconcileResponse](t, rec)
		require.Len(t, resp.Groups, 1)
		assert.Equal(t, matchID, resp.Groups[0].MatchID)
		assert.Equal(t, 2, resp.RevertedA)
		assert.Equal(t, 1, resp.RevertedB)
		assert.Empty(t, resp.Anomalies)
	})
}

func TestServer_QueriesBeforeReconcile(t *testing.T) {
	server, _ := newTestServer(t)
	rec := do(t, server, http.MethodPost, "/api/sessions", nil)
	id := decode[dto.SessionResponse](t, rec).ID

	for _, path := range []string{"/overview", "/providers", "/selection", "/export", "/records?source=a"} {
		rec := do(t, server, http.MethodGet, "/api/sessions/"+id+path, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, path)
	}
}

func TestServer_UnknownSession(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/api/sessions/nope/overview", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
