package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"domainscan/pkg/controller"
	"domainscan/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	_ = logger.Setup(logger.DevelopmentEnvironment, "")
	m.Run()
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "x-forwarded-for", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, want: "1.2.3.4"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "9.8.7.6"}, want: "9.8.7.6"},
		{name: "remote addr", remote: "10.0.0.1:12345", want: "10.0.0.1"},
		{name: "unparsable remote addr", remote: "pipe", want: "pipe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if tc.remote != "" {
				req.RemoteAddr = tc.remote
			}
			require.Equal(t, tc.want, controller.ClientIP(req))
		})
	}
}

func TestWithLogger_RequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo", controller.RequestID(r.Context()))
		w.WriteHeader(http.StatusAccepted)
	})
	h := controller.WithLogger(next)

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", nil)
	req.Header.Set(controller.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "abc-123", rec.Header().Get("X-Echo"))
	require.Equal(t, "abc-123", rec.Header().Get(controller.RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/latest", nil))
	require.NotEmpty(t, rec.Header().Get("X-Echo"))
	require.Equal(t, rec.Header().Get("X-Echo"), rec.Header().Get(controller.RequestIDHeader))
}

func TestWithLogger_AccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := logger.WithLogger(context.Background(), zap.New(core))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	h := controller.WithLogger(next, "/metrics", "/healthz")

	for _, path := range []string{"/v1/runs/latest", "/metrics", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(base)
		req.Header.Set(controller.RequestIDHeader, "req-"+path)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("access log").All()
	require.Len(t, entries, 3)

	require.Equal(t, zap.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-/v1/runs/latest", fields["request_id"])
	require.EqualValues(t, http.StatusOK, fields["status_code"])
	require.EqualValues(t, 5, fields["bytes"])
	require.Equal(t, http.MethodGet, fields["method"])

	require.Equal(t, zap.DebugLevel, entries[1].Level, "metric scrapes are quiet")
	require.Equal(t, zap.DebugLevel, entries[2].Level, "health probes are quiet")
}
