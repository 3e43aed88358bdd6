package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenProvider supplies stored OAuth tokens per account.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider reads JSON-encoded oauth2 tokens from a directory,
// one file per account. Obtaining the tokens is left to other tooling.
type FileTokenProvider struct {
	dir string
}

// NewFileTokenProvider creates a provider reading from dir. An empty dir
// selects the user cache directory.
func NewFileTokenProvider(dir string) *FileTokenProvider {
	if dir == "" {
		dir = filepath.Join(userCacheDir(), "calmate")
	}
	return &FileTokenProvider{dir: dir}
}

// TokenFilePath returns the token file for account.
func (p *FileTokenProvider) TokenFilePath(account string) string {
	return filepath.Join(p.dir, "google-"+account+".token")
}

// GetTokenForAccount reads the token stored for account.
func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if err := ValidateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.TokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no stored Google token for account %s: %w", account, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file for account %s: %w", account, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file for account %s holds no credentials", account)
	}
	return &token, nil
}

// HasTokenForAccount checks if a token file exists for account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if ValidateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(p.TokenFilePath(account))
	return err == nil
}
