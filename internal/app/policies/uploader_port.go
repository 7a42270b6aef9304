package policies

import (
	"context"
	"io"
)

// Uploader stores binary evidence content and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}
