package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// oidcFixture signs tokens with a local key and answers Google's cert endpoint with it.
type oidcFixture struct {
	key    *rsa.PrivateKey
	kid    string
	client *http.Client
}

func newOIDCFixture(t *testing.T) *oidcFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	f := &oidcFixture{key: key, kid: "test-kid"}
	f.client = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		if r.URL.Host != "www.googleapis.com" || r.URL.Path != "/oauth2/v3/certs" {
			rec.WriteHeader(http.StatusNotFound)
			return rec.Result(), nil
		}
		pub := key.PublicKey
		_ = json.NewEncoder(rec).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": f.kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
		return rec.Result(), nil
	})}
	return f
}

func (f *oidcFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = f.kid
	s, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func googleClaims(nonce string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            "client-123",
		"sub":            "1098765",
		"email":          "grace@example.com",
		"email_verified": true,
		"given_name":     "Grace",
		"family_name":    "Hopper",
		"nonce":          nonce,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestOIDCVerifierGoogle(t *testing.T) {
	f := newOIDCFixture(t)
	v, err := NewOIDCVerifier(context.Background(), f.client, "client-123")
	if err != nil {
		t.Fatalf("NewOIDCVerifier: %v", err)
	}
	ctx := context.Background()
	nonce := "raw-nonce"

	ident, err := v.VerifyGoogleIDToken(ctx, f.sign(t, googleClaims(nonce)), HashNonce(nonce))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.Sub != "1098765" || ident.Email != "grace@example.com" || !ident.EmailVerified || ident.LastName != "Hopper" {
		t.Fatalf("identity: got=%+v", ident)
	}

	// The token may also carry the hashed nonce.
	if _, err := v.VerifyGoogleIDToken(ctx, f.sign(t, googleClaims(HashNonce(nonce))), HashNonce(nonce)); err != nil {
		t.Fatalf("hashed nonce claim: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
		want   string
	}{
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }, "audience"},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example" }, "issuer"},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }, "expired"},
		{"other nonce", func(c jwt.MapClaims) { c["nonce"] = "another" }, "nonce"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := googleClaims(nonce)
			tc.mutate(claims)
			_, err := v.VerifyGoogleIDToken(ctx, f.sign(t, claims), HashNonce(nonce))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got=%v want error containing %q", err, tc.want)
			}
		})
	}
}

func TestNewOIDCVerifierRequiresClientID(t *testing.T) {
	if _, err := NewOIDCVerifier(context.Background(), nil, " "); err == nil {
		t.Fatalf("got=nil want error")
	}
}
