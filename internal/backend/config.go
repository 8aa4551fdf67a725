package backend

import (
	"fmt"

	"expensetracker/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:             backendType,
		SpreadsheetTitle:  appConfig.SpreadsheetTitle,
		OAuthClientJSON:   appConfig.GoogleOAuthClientJSON,
		OAuthClientFile:   appConfig.GoogleOAuthClientFile,
		OAuthRedirectPort: appConfig.OAuthRedirectPort,
		OAuthTimeout:      appConfig.OAuthTimeout,
		SeedFile:          appConfig.MemorySeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SpreadsheetTitle == "" {
		return fmt.Errorf("spreadsheet title is required")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SheetsBackend, MemoryBackend}
}
