package domain

import (
	"encoding/base64"
	"fmt"
)

// AuthenticationType selects how requests to an external system are authenticated.
type AuthenticationType string

const (
	AuthenticationTypeAPIKey      AuthenticationType = "API_KEY"
	AuthenticationTypeBearerToken AuthenticationType = "BEARER_TOKEN"
	AuthenticationTypeBasicAuth   AuthenticationType = "BASIC_AUTH"
	AuthenticationTypeOAuth2      AuthenticationType = "OAUTH2"
)

// AuthScheme adds credential headers for one authentication type.
// Each variant reads only the credential fields it needs.
type AuthScheme interface {
	apply(headers map[string]string, creds Credentials) error
}

type apiKeyScheme struct{}
type bearerTokenScheme struct{}
type basicAuthScheme struct{}
type oauth2Scheme struct{}

func (apiKeyScheme) apply(h map[string]string, c Credentials) error {
	h["X-API-Key"] = c.APIKey
	return nil
}

func (bearerTokenScheme) apply(h map[string]string, c Credentials) error {
	h["Authorization"] = "Bearer " + c.BearerToken
	return nil
}

func (basicAuthScheme) apply(h map[string]string, c Credentials) error {
	token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	h["Authorization"] = "Basic " + token
	return nil
}

// OAUTH2 token acquisition does not exist yet; no credential header is added.
func (oauth2Scheme) apply(map[string]string, Credentials) error {
	return ErrOAuth2NotImplemented
}

// Scheme resolves the authentication type to its header builder.
func (t AuthenticationType) Scheme() (AuthScheme, error) {
	switch t {
	case AuthenticationTypeAPIKey:
		return apiKeyScheme{}, nil
	case AuthenticationTypeBearerToken:
		return bearerTokenScheme{}, nil
	case AuthenticationTypeBasicAuth:
		return basicAuthScheme{}, nil
	case AuthenticationTypeOAuth2:
		return oauth2Scheme{}, nil
	}
	return nil, fmt.Errorf("%w: authentication type %q", ErrInvalidInput, t)
}

// BuildAuthHeaders returns the transport headers for an authentication type.
// The map always contains Content-Type. A non-nil error is informational for
// OAUTH2 (ErrOAuth2NotImplemented): the returned headers are still usable.
func BuildAuthHeaders(authType AuthenticationType, creds Credentials) (map[string]string, error) {
	headers := map[string]string{"Content-Type": "application/json"}

	scheme, err := authType.Scheme()
	if err != nil {
		return headers, err
	}
	if err := scheme.apply(headers, creds); err != nil {
		return headers, err
	}
	return headers, nil
}
