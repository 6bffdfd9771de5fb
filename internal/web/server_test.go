package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoauth/internal/probe"
	"autoauth/pkg/models"
)

type stubSettings struct{}

func (stubSettings) Credentials() models.Credentials {
	return models.Credentials{Account: "2023001", Password: "hunter2"}
}
func (stubSettings) Override() models.AddressOverride { return models.AddressOverride{} }
func (stubSettings) PreferredInterface() string       { return "" }

type stubAddrs struct{}

func (stubAddrs) IPv4(string) (string, bool) { return "10.59.14.49", true }
func (stubAddrs) IPv6(string) (netip.Addr, bool) {
	return netip.MustParseAddr("2001:db8::1"), true
}

type stubProber struct{ calls int }

func (p *stubProber) Probe(context.Context) probe.Result {
	p.calls++
	return probe.Connected
}

type stubLogs struct{}

func (stubLogs) ReadLatest(int64, int) string { return "[2024-09-01 08:30:00.000] 服务已创建并开始调度\n" }
func (stubLogs) Recent() []models.LogEntry {
	return []models.LogEntry{{Timestamp: time.Unix(1725150600, 0), UnixTime: 1725150600, Message: "服务已创建并开始调度"}}
}

func newTestServer(qps float64) (*Server, *stubProber) {
	p := &stubProber{}
	s := NewServer("127.0.0.1:0", qps, Deps{
		Settings:  stubSettings{},
		Addresses: stubAddrs{},
		Prober:    p,
		Logs:      stubLogs{},
		PortalURL: "http://10.10.102.50:801/eportal/portal/login",
	})
	return s, p
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func TestStatusAPI(t *testing.T) {
	s, _ := newTestServer(1)
	s.Publish(models.Status{
		Network:     "已联网",
		LastURL:     "http://gw/login?user_account=x&user_password=hunter2&wlan_user_ip=",
		LastSummary: "HTTP 200 | result=1, msg=ok",
		Running:     true,
		Result:      &models.CycleResult{Kind: models.ResultConnected},
		Cycle:       3,
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Network string `json:"networkStatus"`
		LastURL string `json:"lastUrl"`
		Running bool   `json:"serviceRunning"`
		Cycle   int    `json:"cycle"`
		Result  struct {
			Kind string `json:"kind"`
		} `json:"result"`
	}
	decodeData(t, rec, &got)
	assert.Equal(t, "已联网", got.Network)
	assert.Equal(t, "http://gw/login?user_account=x&user_password=******&wlan_user_ip=", got.LastURL)
	assert.True(t, got.Running)
	assert.Equal(t, 3, got.Cycle)
	assert.Equal(t, "connected", got.Result.Kind)

	assert.Contains(t, s.Status().LastURL, "hunter2", "redaction applies to the response only")
}

func TestPreviewAPI(t *testing.T) {
	s, _ := newTestServer(1)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got PreviewJSON
	decodeData(t, rec, &got)
	assert.Equal(t, "10.59.14.49", got.IPv4)
	assert.Equal(t, "2001:db8::1", got.IPv6)
	assert.Contains(t, got.URL, "&wlan_user_ip=10.59.14.49&")
	assert.Contains(t, got.URL, "&user_password=******&")
	assert.NotContains(t, got.URL, "hunter2")
}

func TestLogsAPI(t *testing.T) {
	s, _ := newTestServer(1)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?lines=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Text    string         `json:"text"`
		Entries []LogEntryJSON `json:"entries"`
	}
	decodeData(t, rec, &got)
	assert.Contains(t, got.Text, "服务已创建并开始调度")
	require.Len(t, got.Entries, 1)
	assert.Equal(t, int64(1725150600), got.Entries[0].UnixTime)
}

func TestProbeAPIRateLimited(t *testing.T) {
	s, p := newTestServer(0.001)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/probe", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	decodeData(t, rec, &got)
	assert.Equal(t, "已联网", got["networkStatus"])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/probe", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, p.calls)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/probe", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(1)
	s.Publish(models.Status{Network: "未联网", Running: true, LastSummary: "请求失败: timeout"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "网络状态: 未联网")
	assert.Contains(t, body, "请求失败: timeout")
	assert.Contains(t, body, "IPv4: 10.59.14.49")
	assert.NotContains(t, body, "hunter2")
}

func TestInitialStatusIsUnknown(t *testing.T) {
	s, _ := newTestServer(1)
	assert.Equal(t, "未知", s.Status().Network)
	assert.False(t, s.Status().Running)
}

func TestIndexWithoutTemplates(t *testing.T) {
	s, _ := newTestServer(1)
	s.templates = NewTemplateManager()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/status")
}
