package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const keyringServiceName = "codecompanion"

func GetOS() string {
	return runtime.GOOS
}

// KeyringService stores provider API keys in the OS credential vault.
type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

// OpenKeyring opens the platform keyring, falling back to an encrypted file under the user config dir.
func OpenKeyring() (keyring.Keyring, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	fileDir := filepath.Join(configDir, keyringServiceName, "keys")

	return keyring.Open(keyring.Config{
		ServiceName: keyringServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		},
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(keyringServiceName + "-" + GetOS()),
	})
}

func (s *KeyringService) StoreApiKey(platform string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if strings.TrimSpace(platform) == "" {
		return errors.New("platform is required")
	}
	return s.ring.Set(keyring.Item{
		Key:         platform,
		Data:        apiKey,
		Label:       platform + " API key",
		Description: "API key for " + platform + " used by Code Companion",
	})
}

// GetApiKey returns the stored key, or "" when the platform has none.
func (s *KeyringService) GetApiKey(platform string) (string, error) {
	if strings.TrimSpace(platform) == "" {
		return "", errors.New("platform is required")
	}
	item, err := s.ring.Get(platform)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s key: %w", platform, err)
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(platform string) error {
	if strings.TrimSpace(platform) == "" {
		return errors.New("platform is required")
	}
	if err := s.ring.Remove(platform); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]string, 0, len(keys))
	for _, platform := range keys {
		results = append(results, map[string]string{
			"platform":    platform,
			"label":       platform + " API key",
			"description": "API key for " + platform + " used by Code Companion",
		})
	}
	return results, nil
}
