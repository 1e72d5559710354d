package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orchestratorx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/state"
	metricsx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAssistant struct {
	session *statex.Session
	err     error
	entered chan struct{}
	release chan struct{}
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{session: statex.NewSession("api", statex.NewHistory(), nil)}
}

func (f *fakeAssistant) Turn(ctx context.Context, text string) (nodex.GraphOutput, error) {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	if f.err != nil {
		return nodex.GraphOutput{}, f.err
	}
	if strings.TrimSpace(text) == "" {
		return nodex.GraphOutput{}, contractx.ErrInvalidMessage
	}
	reply := "✅ Opened Firefox"
	ex := f.session.Record(ctx, text, reply)
	return nodex.GraphOutput{
		Reply:    reply,
		Exchange: ex,
		Results:  []contractx.DispatchResult{{Tool: contractx.ToolOpenApp, Text: "Opened Firefox", Status: contractx.StatusOK}},
	}, nil
}

func (f *fakeAssistant) State() orchestratorx.State { return orchestratorx.StateIdle }

func (f *fakeAssistant) Session() *statex.Session { return f.session }

func newTestServer(a Assistant) *Server {
	apps := catalog.New([]catalog.Entry{{DisplayName: "Firefox", LaunchCommand: "firefox"}})
	return NewServer(a, apps, metricsx.New())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	s := newTestServer(a)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/messages", `{"text":"open firefox"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp messageResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "✅ Opened Firefox", resp.Reply)
	assert.NotEmpty(t, resp.ExchangeID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, contractx.StatusOK, resp.Results[0].Status)
	assert.Equal(t, 1, a.session.History.Len())
}

func TestPostMessageErrors(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	s := newTestServer(a)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/messages", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/v1/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.err = errors.Join(contractx.ErrModelInvoke, errors.New("connection refused"))
	rec = do(t, s.Handler(), http.MethodPost, "/v1/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestPostMessageBusy(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	a.entered = make(chan struct{})
	a.release = make(chan struct{})
	s := newTestServer(a)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(t, s.Handler(), http.MethodPost, "/v1/messages", `{"text":"open firefox"}`)
	}()
	<-a.entered

	rec := do(t, s.Handler(), http.MethodPost, "/v1/messages", `{"text":"again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(a.release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestHistoryRoutes(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	a.session.Record(context.Background(), "hello", "Hi!")
	s := newTestServer(a)

	rec := do(t, s.Handler(), http.MethodGet, "/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"session_id":"api"`)
	assert.Contains(t, body, `"user_text":"hello"`)

	rec = do(t, s.Handler(), http.MethodDelete, "/v1/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, a.session.History.Len())
}

func TestAppsHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(newFakeAssistant())

	rec := do(t, s.Handler(), http.MethodGet, "/v1/apps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"name":"Firefox"`)

	rec = do(t, s.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)

	rec = do(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestPostMessageRequiresJSONContentType(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	s := newTestServer(a)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"text":"open firefox"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, 0, a.session.History.Len())
}

func TestCrossOriginRequestsRejected(t *testing.T) {
	t.Parallel()

	a := newFakeAssistant()
	a.session.Record(context.Background(), "hello", "Hi!")
	s := newTestServer(a)

	cases := []struct {
		method, path, contentType, body string
	}{
		{http.MethodPost, "/v1/messages", "text/plain", `{"text":"open firefox"}`},
		{http.MethodPost, "/v1/messages", "application/json", `{"text":"open firefox"}`},
		{http.MethodDelete, "/v1/history", "", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Origin", "https://evil.example")
		if tc.contentType != "" {
			req.Header.Set("Content-Type", tc.contentType)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s %s", tc.method, tc.path, tc.contentType)
	}
	assert.Equal(t, 1, a.session.History.Len())
}

func TestLoopbackOriginAllowed(t *testing.T) {
	t.Parallel()

	s := newTestServer(newFakeAssistant())

	for _, origin := range []string{"http://127.0.0.1:8787", "http://localhost:3000", "http://[::1]:8787"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"text":"open firefox"}`))
		req.Header.Set("Origin", origin)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, origin)
	}
	assert.False(t, isLoopbackOrigin("null"))
	assert.False(t, isLoopbackOrigin("http://127.0.0.1.evil.example"))
}
