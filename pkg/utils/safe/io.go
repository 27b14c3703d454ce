package safe

import (
	"context"
	"io"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Close closes the closer and logs any error instead of dropping it
func Close(ctx context.Context, c io.Closer) {
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "error", err)
	}
}

// Copy copies src into dst and logs any error instead of dropping it
func Copy(ctx context.Context, dst io.Writer, src io.Reader) {
	if _, err := io.Copy(dst, src); err != nil {
		logging.From(ctx).Warn("failed to copy", "error", err)
	}
}
