package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Config holds the client-side settings of the CLI
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig reads STARTER_* variables over built-in defaults
func DefaultConfig() *Config {
	return &Config{
		ServerURL: envOr("STARTER_SERVER", "http://127.0.0.1:8080"),
		Token:     os.Getenv("STARTER_TOKEN"),
		TokenFile: envOr("STARTER_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
	}
}

// Validate rejects settings no command can work with
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return eris.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	if c.ServerURL == "" {
		return eris.New("server URL is required")
	}
	return nil
}

// LoadToken fills Token from TokenFile unless a token was given directly.
// A missing token file means the daemon runs without auth.
func (c *Config) LoadToken() error {
	if c.Token != "" || c.TokenFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "read token file %s", c.TokenFile)
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes token to TokenFile, readable by the owner only
func (c *Config) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return eris.Wrap(err, "create token directory")
	}
	if err := os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600); err != nil {
		return eris.Wrapf(err, "write token file %s", c.TokenFile)
	}
	c.Token = token
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".starter", "token")
	}
	return filepath.Join(home, ".starter", "token")
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
