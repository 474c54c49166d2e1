package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/types"
	"golang.org/x/oauth2"
)

const maxUserInfoBytes = 1 << 20

// Provider runs the authorization-code flow against the identity provider.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
	now         func() time.Time
}

func NewProvider(cfg config.OAuthConfig) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		now:         time.Now,
	}
}

// AuthCodeURL is where the browser is sent to sign in.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type userInfo struct {
	Sub         string `json:"sub"`
	OpenID      string `json:"openId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	LoginMethod string `json:"loginMethod"`
	Platform    string `json:"platform"`
}

// Exchange trades the callback code for a token and loads the identity.
func (p *Provider) Exchange(ctx context.Context, code string) (types.Identity, error) {
	if strings.TrimSpace(code) == "" {
		return types.Identity{}, errors.New("missing authorization code")
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return types.Identity{}, fmt.Errorf("exchange code: %w", err)
	}
	if p.userInfoURL == "" {
		return types.Identity{}, errors.New("userinfo endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return types.Identity{}, err
	}
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return types.Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.Identity{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return types.Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}

	openID := info.OpenID
	if openID == "" {
		openID = info.Sub
	}
	if openID == "" {
		return types.Identity{}, errors.New("userinfo has no subject")
	}
	method := info.LoginMethod
	if method == "" {
		method = info.Platform
	}

	return types.Identity{
		OpenID:       openID,
		Name:         optional(info.Name),
		Email:        optional(info.Email),
		LoginMethod:  optional(method),
		LastSignedIn: p.now().UTC(),
	}, nil
}
