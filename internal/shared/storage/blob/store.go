package blob

import (
	"context"
	"errors"
	"path"
)

// ErrExists is returned when the target path is already occupied. Callers
// must treat it as a collision and must not overwrite.
var ErrExists = errors.New("blob already exists")

// Store writes certificate files to durable storage.
type Store interface {
	// Write persists content at the path derived from userID and fileName
	// and returns the storage key. An occupied path yields ErrExists.
	Write(ctx context.Context, userID, fileName string, content []byte) (string, error)
}

// Key returns the storage key for a user's file: upload/{userID}/{fileName}.
func Key(userID, fileName string) string {
	return path.Join("upload", userID, fileName)
}
