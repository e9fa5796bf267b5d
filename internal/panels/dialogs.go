package panels

import (
	"context"

	"codecompanion/internal/services"
)

// Dialogs are the host facilities panels may use.
type Dialogs interface {
	services.PathChooser
	OpenURL(ctx context.Context, url string) error
}
