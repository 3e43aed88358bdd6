package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultAccount is the account name used when none is configured.
const DefaultAccount = "default"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateAccountName rejects names that are unsafe to use in file paths.
func ValidateAccountName(account string) error {
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: use 1-64 letters, digits, '-' or '_'", account)
	}
	return nil
}

// OAuthConfig returns the OAuth2 configuration used to refresh stored tokens.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       CalendarScopes,
	}
}

// NewHTTPClient returns an HTTP client that authenticates as account.
// Expired access tokens are refreshed through conf.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider, account string) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}
	return client, nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
