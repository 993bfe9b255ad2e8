package v1handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"domainscan/internal/api/handler/v1handler"
	"domainscan/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "domainscan-test"

// helper to generate an RSA key pair and return the private key and PEM-encoded public key.
func genRSAKeys(tb testing.TB) (*rsa.PrivateKey, string) {
	tb.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(tb, err, "failed to generate RSA key")
	pubASN1, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(tb, err, "failed to marshal public key")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubASN1})

	return priv, string(pubPEM)
}

func newSecHandlerForTest(t *testing.T, pubPEM string) *v1handler.SecHandler {
	t.Helper()
	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: pubPEM, Issuer: testIssuer})
	require.NoError(t, err, "NewSecHandler failed")

	return sh
}

func signJWTRS256(tb testing.TB, priv *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	tb.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(priv)
	require.NoError(tb, err, "failed to sign token")

	return signed
}

func validClaims(sub string) jwt.RegisteredClaims {
	now := time.Now()

	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func TestHandleBearerAuth_ValidToken(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	tkn := signJWTRS256(t, priv, validClaims("ops"))

	ctx, err := sh.HandleBearerAuth(context.Background(), tkn)
	require.NoError(t, err)
	require.Equal(t, "ops", v1handler.GetSubjectFromContext(ctx))
}

func TestHandleBearerAuth_Rejected(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)
	privOther, _ := genRSAKeys(t)

	expired := validClaims("ops")
	expired.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	expired.NotBefore = expired.IssuedAt
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims("ops")
	wrongIssuer.Issuer = "someone-else"

	noExpiry := validClaims("ops")
	noExpiry.ExpiresAt = nil

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("ops"))
	hsSigned, err := hs.SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"invalid signature": signJWTRS256(t, privOther, validClaims("ops")),
		"expired":           signJWTRS256(t, priv, expired),
		"wrong issuer":      signJWTRS256(t, priv, wrongIssuer),
		"no expiry":         signJWTRS256(t, priv, noExpiry),
		"no subject":        signJWTRS256(t, priv, validClaims("")),
		"wrong algorithm":   hsSigned,
		"garbage":           "not-a-token",
	}

	for name, tkn := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sh.HandleBearerAuth(context.Background(), tkn)
			require.Error(t, err)
			require.ErrorIs(t, err, serrors.ErrUnauthorized)
		})
	}
}

func TestNewSecHandler_FromFile(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	path := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(path, []byte(pubPEM), 0o600))

	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKeyPath: path})
	require.NoError(t, err)

	claims := validClaims("ops")
	claims.Issuer = "any"
	_, err = sh.HandleBearerAuth(context.Background(), signJWTRS256(t, priv, claims))
	require.NoError(t, err, "empty issuer option accepts any issuer")

	_, err = v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKeyPath: filepath.Join(t.TempDir(), "none.pem")})
	require.Error(t, err)

	_, err = v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: "not a key"})
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = v1handler.GetSubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	var gotErr error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	h := sh.Middleware(next, onError)

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.ErrorIs(t, gotErr, serrors.ErrUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	req.Header.Set("Authorization", "Bearer "+signJWTRS256(t, priv, validClaims("ops")))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops", gotSubject)
}
