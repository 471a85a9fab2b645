package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	domainauth "github.com/yungbote/formcraft-backend/internal/domain/auth"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type ExternalIdentity struct {
	Provider      string
	Sub           string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	NonceClaim    string // raw value from token
}

type OIDCVerifier interface {
	VerifyGoogleIDToken(ctx context.Context, idToken string, expectedNonceHash string) (*ExternalIdentity, error)
}

type oidcVerifier struct {
	validator *idtoken.Validator
	clientID  string
}

// NewOIDCVerifier verifies Google ID tokens for googleClientID. Signing keys come from
// Google's published certs; httpClient may be nil.
func NewOIDCVerifier(ctx context.Context, httpClient *http.Client, googleClientID string) (OIDCVerifier, error) {
	googleClientID = strings.TrimSpace(googleClientID)
	if googleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_OIDC_CLIENT_ID is required")
	}
	var opts []idtoken.ClientOption
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("idtoken validator: %w", err)
	}
	return &oidcVerifier{validator: v, clientID: googleClientID}, nil
}

func (v *oidcVerifier) VerifyGoogleIDToken(ctx context.Context, idToken string, expectedNonceHash string) (*ExternalIdentity, error) {
	payload, err := v.validator.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, err
	}
	if !containsIssuer(googleIssuers, payload.Issuer) {
		return nil, fmt.Errorf("unexpected issuer %q", payload.Issuer)
	}
	out := payloadToExternal(domainauth.ProviderGoogle, payload)
	if err := verifyNonceAgainstHash(domainauth.ProviderGoogle, out.NonceClaim, expectedNonceHash); err != nil {
		return nil, err
	}
	return out, nil
}

func verifyNonceAgainstHash(provider, nonceClaim, expectedNonceHash string) error {
	if strings.TrimSpace(expectedNonceHash) == "" {
		return fmt.Errorf("missing expected nonce hash")
	}
	if strings.TrimSpace(nonceClaim) == "" {
		return fmt.Errorf("missing nonce claim in id_token")
	}

	// Clients may send either the raw nonce or its hash as the token's nonce.
	if constantTimeEq(nonceClaim, expectedNonceHash) {
		return nil
	}
	if constantTimeEq(HashNonce(nonceClaim), expectedNonceHash) {
		return nil
	}
	return fmt.Errorf("nonce mismatch for provider=%s", provider)
}

// HashNonce is the stored form of an OAuth nonce.
func HashNonce(nonce string) string {
	sum := sha256.Sum256([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func constantTimeEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func containsIssuer(list []string, iss string) bool {
	for _, v := range list {
		if v == iss {
			return true
		}
	}
	return false
}

func payloadToExternal(provider string, p *idtoken.Payload) *ExternalIdentity {
	out := &ExternalIdentity{Provider: provider, Sub: p.Subject}
	out.Email, _ = p.Claims["email"].(string)
	out.EmailVerified = parseBool(p.Claims["email_verified"])
	out.FirstName, _ = p.Claims["given_name"].(string)
	out.LastName, _ = p.Claims["family_name"].(string)
	out.NonceClaim, _ = p.Claims["nonce"].(string)
	return out
}

func parseBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true") || x == "1"
	case float64:
		return x != 0
	default:
		return false
	}
}
