//go:build prod

package database

import (
	"os"
	"path/filepath"

	"codecompanion/internal/logging"
)

// GetDefaultDBPath returns the database path for production mode.
// In production, the database is stored in the user's config directory.
func GetDefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		logging.Log().Warnf("failed to get user config dir: %v, using fallback", err)
		return "codecompanion.db"
	}

	appDir := filepath.Join(configDir, "codecompanion")

	err = os.MkdirAll(appDir, 0755)
	if err != nil {
		logging.Log().Warnf("failed to create app config dir: %v, using fallback", err)
		return "codecompanion.db"
	}

	dbPath := filepath.Join(appDir, "codecompanion.db")

	return dbPath
}

func IsDevelopment() bool {
	return false
}
