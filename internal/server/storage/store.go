// Package storage keeps processed profile pictures, either on local disk or in
// an S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// ImageStore persists profile pictures under a flat name such as
// "3f2b...e1.png".
type ImageStore interface {
	// Save writes r under name, replacing anything already stored there.
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	// Delete removes name. Missing objects are not an error.
	Delete(ctx context.Context, name string) error
	// URL is the address browsers use to fetch name.
	URL(name string) string
}
