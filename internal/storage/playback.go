// Package storage covers the Azure Blob Storage side of audio: SAS issuance,
// direct uploads and playback URL construction.
package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNotConfigured is returned when account, container or token is missing.
	ErrNotConfigured = errors.New("storage: account, container or token not configured")
	// ErrEmptyPath is returned for an empty blob path.
	ErrEmptyPath = errors.New("storage: empty blob path")
)

// Account identifies a storage account and container.
type Account struct {
	Name      string
	Container string
	// Endpoint overrides https://<name>.blob.core.windows.net.
	Endpoint string
}

// BaseURL returns the account endpoint without a trailing slash.
func (a Account) BaseURL() string {
	if a.Endpoint != "" {
		return strings.TrimRight(a.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net", a.Name)
}

// BlobURL returns the unsigned URL of blobName inside the container.
func (a Account) BlobURL(blobName string) string {
	return a.BaseURL() + "/" + a.Container + "/" + escapePath(blobName)
}

// NormalizeBlobPath strips leading slashes and any number of leading
// container-name prefixes from path.
func NormalizeBlobPath(container, path string) string {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	prefix := container + "/"
	for container != "" && strings.HasPrefix(path, prefix) {
		path = strings.TrimLeft(strings.TrimPrefix(path, prefix), "/")
	}
	return path
}

// NormalizeToken strips leading '?' characters and whitespace from a SAS token.
func NormalizeToken(token string) string {
	return strings.TrimLeft(strings.TrimSpace(token), "?")
}

// PlaybackURL builds the read URL for an audio blob using the pre-shared token.
func PlaybackURL(a Account, token, path string) (string, error) {
	token = NormalizeToken(token)
	if a.Name == "" && a.Endpoint == "" || a.Container == "" || token == "" {
		return "", ErrNotConfigured
	}
	blob := NormalizeBlobPath(a.Container, path)
	if blob == "" {
		return "", ErrEmptyPath
	}
	return a.BlobURL(blob) + "?" + token, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
