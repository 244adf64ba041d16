// Package media is the narrow seam to the media host. Handlers stage
// multipart uploads to a local temp file and hand the path to an Uploader;
// everything about the hosting provider stays behind this interface.
package media

import "context"

type Uploader interface {
	// Upload pushes the file at localPath to the media host and returns the
	// durable URL for it.
	Upload(ctx context.Context, localPath string) (string, error)
}
