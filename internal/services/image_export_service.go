package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"codecompanion/internal/logging"
	"codecompanion/internal/models"
	"codecompanion/internal/utils"
)

var ErrInvalidImage = errors.New("invalid image payload")

// PathChooser asks the user where to save a file. An empty path means the user cancelled.
type PathChooser interface {
	ChooseSavePath(ctx context.Context, defaultName string) (string, error)
}

type ImageExportService interface {
	Save(ctx context.Context, img models.InlineImage) (string, error)
	WriteTo(ctx context.Context, img models.InlineImage, path string) error
}

type imageExportService struct {
	chooser PathChooser
	http    *http.Client
	now     func() time.Time
}

func NewImageExportService(chooser PathChooser, httpClient *http.Client) ImageExportService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &imageExportService{chooser: chooser, http: httpClient, now: time.Now}
}

// Save asks for a destination and writes the image there. It returns the chosen path, or "" when cancelled.
func (s *imageExportService) Save(ctx context.Context, img models.InlineImage) (string, error) {
	if s.chooser == nil {
		return "", errors.New("no save dialog available")
	}
	name := fmt.Sprintf("image-%s%s", s.now().Format("20060102-150405"), extensionFor(img.MimeType))

	path, err := s.chooser.ChooseSavePath(ctx, name)
	if err != nil {
		return "", fmt.Errorf("save dialog failed: %w", err)
	}
	if path == "" {
		return "", nil
	}
	if err := s.WriteTo(ctx, img, path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *imageExportService) WriteTo(ctx context.Context, img models.InlineImage, path string) error {
	data, err := s.payload(ctx, img)
	if err != nil {
		return err
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	logging.WithFields("path", path, "bytes", len(data)).Info("image saved")
	return nil
}

func (s *imageExportService) payload(ctx context.Context, img models.InlineImage) ([]byte, error) {
	if encoded := strings.TrimSpace(img.Base64); encoded != "" {
		if strings.HasPrefix(encoded, "data:") {
			_, after, ok := strings.Cut(encoded, ",")
			if !ok {
				return nil, ErrInvalidImage
			}
			encoded = after
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return data, nil
	}

	if img.CdnURL == "" {
		return nil, ErrInvalidImage
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.CdnURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
