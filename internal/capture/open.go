package capture

import (
	"context"
	"log/slog"

	"github.com/GriffinCanCode/cardscan/internal/config"
)

// Open returns the replay source when a replay directory is configured,
// otherwise the camera.
func Open(ctx context.Context, cfg *config.Config) (Source, error) {
	if cfg.ReplayDir != "" {
		slog.Info("replaying frames", "dir", cfg.ReplayDir)
		return NewReplay(cfg.ReplayDir)
	}
	slog.Info("opening camera", "device", cfg.CameraDevice,
		"width", cfg.FrameWidth, "height", cfg.FrameHeight)
	return OpenCamera(ctx, cfg.CameraDevice, cfg.FrameWidth, cfg.FrameHeight)
}
