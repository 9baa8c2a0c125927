// Package storage keeps uploaded image files on local disk. The directory
// is served statically by the HTTP server under the configured URL prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Disk writes files beneath Root and reports their public URL beneath
// URLPrefix.
type Disk struct {
	Root      string
	URLPrefix string
}

// NewDisk creates root if needed.
func NewDisk(root, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{Root: root, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Put stores data under key and returns the URL it is served from.
func (d *Disk) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := d.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(d.URLPrefix, key), nil
}

// Remove deletes the file stored under key. A missing file is not an error.
func (d *Disk) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// pathFor rejects keys that would escape Root.
func (d *Disk) pathFor(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(d.Root, key), nil
}
