package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUser is the portion of the OpenID userinfo response we care about.
// Google returns more fields — we only unmarshal what we store.
type GoogleUser struct {
	Sub     string `json:"sub"`     // Google's stable subject identifier
	Name    string `json:"name"`    // Display name
	Email   string `json:"email"`   // May be empty if not shared
	Picture string `json:"picture"` // Profile picture URL
}

const userinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow.
//
// The code-for-token exchange happens server-to-server using the client
// secret, so the access token never touches the browser.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// ClientID and ClientSecret come from the Google Cloud console ("OAuth 2.0
// Client IDs"). callbackURL must exactly match one of the authorized redirect
// URIs configured there, e.g. "http://localhost:8080/auth/google/callback".
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoints.Google,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback verifies it to block CSRF-initiated flows.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google user profile.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Call the OpenID userinfo endpoint with the token
//  3. Unmarshal the response into a GoogleUser
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// Client returns an *http.Client that adds the Bearer header itself.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	return &gUser, nil
}
