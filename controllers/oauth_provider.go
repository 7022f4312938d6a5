package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/github"

	"github.com/yafa-kitchen/recipes/config"
)

// OAuthProvider signs admins in through an external identity provider.
// The account id is read from IDField of the userinfo response.
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	IDField     string
}

// NewOAuthProvider builds the configured provider. It returns nil when OAuth is not configured.
func NewOAuthProvider(cfg config.AppConfig) (*OAuthProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.OAuthProvider))
	if name == "" {
		return nil, nil
	}
	if cfg.OAuthClientID == "" || cfg.OAuthClientSecret == "" {
		return nil, fmt.Errorf("%s oauth not configured", name)
	}

	oc := &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/api/v1/admin/oauth/callback",
	}
	switch name {
	case "github":
		oc.Endpoint = github.Endpoint
		oc.Scopes = []string{"read:user"}
		return &OAuthProvider{Name: name, Config: oc, UserInfoURL: "https://api.github.com/user", IDField: "id"}, nil
	case "google":
		oc.Endpoint = endpoints.Google
		oc.Scopes = []string{"openid"}
		return &OAuthProvider{Name: name, Config: oc, UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo", IDField: "sub"}, nil
	default:
		return nil, fmt.Errorf("unsupported oauth provider: %s", name)
	}
}

// accountID fetches the provider's stable id for the token owner, prefixed with
// the provider name, e.g. "github:12345".
func (p *OAuthProvider) accountID(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s user: %w", p.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s user: status %d", p.Name, resp.StatusCode)
	}

	var body map[string]interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return "", fmt.Errorf("decode %s user: %w", p.Name, err)
	}
	v, ok := body[p.IDField]
	if !ok || v == nil {
		return "", fmt.Errorf("%s user has no %q", p.Name, p.IDField)
	}
	id := strings.TrimSpace(fmt.Sprint(v))
	if id == "" {
		return "", fmt.Errorf("%s user has an empty %q", p.Name, p.IDField)
	}
	return p.Name + ":" + id, nil
}
