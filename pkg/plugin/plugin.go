package plugin

import (
	"encoding/json"
	"net/url"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Plugin describes the plugin to the host.
type Plugin struct {
	Slug        string
	Name        string
	Version     string
	Description string

	// PluginHostPath is the URL the host loads the bundle from.
	PluginHostPath *url.URL
}

// Validate checks the descriptor.
func (p Plugin) Validate() error {
	if !slugRe.MatchString(p.Slug) {
		return perrors.New("P040").WithDetailf("invalid slug %q", p.Slug)
	}
	if p.Name == "" {
		return perrors.New("P040").WithDetail("plugin name is empty")
	}
	if p.PluginHostPath == nil || p.PluginHostPath.Host == "" {
		return perrors.New("P004").WithDetail("plugin host path must be an absolute URL")
	}
	return nil
}

// MarshalJSON encodes the descriptor in the host API's shape.
func (p Plugin) MarshalJSON() ([]byte, error) {
	path := ""
	if p.PluginHostPath != nil {
		path = p.PluginHostPath.String()
	}
	return json.Marshal(struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
		Path        string `json:"path"`
	}{p.Slug, p.Name, p.Version, p.Description, path})
}

// Token is the host's answer to a registration.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`

	// Expiry is when AccessToken stops being valid. Zero means unknown.
	Expiry time.Time `json:"-"`
}

// Valid reports whether the token is usable for at least leeway.
func (t *Token) Valid(now time.Time, leeway time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || now.Add(leeway).Before(t.Expiry)
}

// setExpiry derives Expiry from ExpiresIn, or from the exp claim when the
// access token is a JWT. The signature is not checked: the plugin only
// needs to know when to register again.
func (t *Token) setExpiry(now time.Time) {
	if t.ExpiresIn > 0 {
		t.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
		return
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, &claims); err != nil {
		return
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t.Expiry = exp.Time
	}
}
