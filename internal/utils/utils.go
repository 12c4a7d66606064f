package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochronus/fileapictl/internal/config"
)

const configTemplate = `# Base URL of the file API. Every endpoint (/health, /upload, /list, ...) is appended to it.
base_url = "{{BASE_URL}}"

# Required. Your personal API token, sent as the X-Auth-Token header on every request.
# Can also be set with the FILEAPI_TOKEN environment variable.
token = "{{TOKEN}}"

# Optional storage quota in MB used for the usage report, default 500
quota_mb = {{QUOTA_MB}}

# Optional request timeout in seconds, default 60. 0 disables the timeout.
timeout = 60

# Optional log level, default "info"
loglevel = "info"
`

// RenderConfig returns the commented config template. An empty token keeps the placeholder.
func RenderConfig(token string) string {
	if token == "" {
		token = config.PlaceholderToken
	}
	return strings.NewReplacer(
		"{{BASE_URL}}", config.DefaultBaseURL,
		"{{TOKEN}}", token,
		"{{QUOTA_MB}}", fmt.Sprint(config.DefaultQuotaMB),
	).Replace(configTemplate)
}

// GenerateConfig writes a configuration file, backing up any existing one to .bak.
func GenerateConfig(w io.Writer, configPath, token string) error {
	fmt.Fprintf(w, "Generating config %s\n", configPath)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Fprintf(w, "Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file holds the API token.
	fmt.Fprintf(w, "Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(RenderConfig(token)), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if token == "" {
		fmt.Fprintf(w, "Edit %s and replace '%s' with your actual token.\n", configPath, config.PlaceholderToken)
	}
	return nil
}
