package upload

import "context"

// Uploader uploads generated reports to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	// Writes a small test object to the bucket to fail fast on misconfiguration.
	Preflight(ctx context.Context) error

	// Upload stores content under the configured prefix using name as the
	// final key segment, and returns the object key.
	Upload(ctx context.Context, name string, content []byte) (string, error)
}
