package api_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"domainscan/internal/api"
	"domainscan/internal/api/handler/v1handler"
	mockstorage "domainscan/pkg/storage/mock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serverTest struct {
	srv  *httptest.Server
	runs *mockstorage.MockRunStorage
	priv *rsa.PrivateKey
}

func newServerTest(t *testing.T, ping func(context.Context) error) *serverTest {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	reg := prometheus.NewRegistry()
	scans := prometheus.NewCounter(prometheus.CounterOpts{Name: "domainscan_test_scans_total"})
	reg.MustRegister(scans)
	scans.Inc()

	st := &serverTest{runs: mockstorage.NewMockRunStorage(gomock.NewController(t)), priv: priv}
	handler, err := api.Handler(api.Deps{
		Deps:     v1handler.Deps{Runs: st.runs, MaxAttempts: 1},
		Ping:     ping,
		Gatherer: reg,
	}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{PublicKey: string(pub), Issuer: "domainscan"},
		MetricsPath:       "/metrics",
		AllowedOrigin:     "*",
	})
	require.NoError(t, err)

	st.srv = httptest.NewServer(handler)
	t.Cleanup(st.srv.Close)

	return st
}

func (st *serverTest) get(t *testing.T, path, token string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, st.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, string(body)
}

func (st *serverTest) token(t *testing.T) string {
	t.Helper()

	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    "domainscan",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(st.priv)
	require.NoError(t, err)

	return signed
}

func TestHandler_PublicRoutes(t *testing.T) {
	st := newServerTest(t, func(context.Context) error { return nil })

	res, body := st.get(t, "/specs/v1.yaml", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/yaml", res.Header.Get("Content-Type"))
	require.True(t, strings.HasPrefix(body, "openapi:"))

	res, body = st.get(t, "/healthz", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok\n", body)

	res, body = st.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "domainscan_test_scans_total 1")

	res, _ = st.get(t, "/v1/docs/", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHandler_Middleware(t *testing.T) {
	st := newServerTest(t, func(context.Context) error { return errors.New("db down") })

	res, _ := st.get(t, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func TestHandler_V1RequiresToken(t *testing.T) {
	st := newServerTest(t, nil)

	res, body := st.get(t, "/v1/runs/latest", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Contains(t, body, `"code":"UNAUTHORIZED"`)

	st.runs.EXPECT().LatestRun(gomock.Any()).Return(nil, nil)
	res, body = st.get(t, "/v1/runs/latest", st.token(t))
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Contains(t, body, `"code":"NOT_FOUND"`)

	res, _ = st.get(t, "/healthz", "")
	require.Equal(t, http.StatusNotFound, res.StatusCode, "health is not served without a ping")
}

func TestNewServer(t *testing.T) {
	_, der := func() (*rsa.PrivateKey, []byte) {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		require.NoError(t, err)

		return priv, der
	}()

	srv, err := api.NewServer(api.Deps{}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{
			PublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		},
		Addr:           ":0",
		ReadTimeout:    time.Second,
		RequestTimeout: time.Second,
		MetricsPath:    "/metrics",
	})
	require.NoError(t, err)
	require.Equal(t, ":0", srv.Addr)
	require.Equal(t, time.Second, srv.ReadTimeout)

	_, err = api.NewServer(api.Deps{}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{PublicKey: "not a key"},
		MetricsPath:       "/metrics",
	})
	require.Error(t, err)
}
