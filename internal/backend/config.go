package backend

import (
	"fmt"

	"presenze/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedDir:      appConfig.MemorySeedDir,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings.
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
