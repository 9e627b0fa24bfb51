// Package hub provides the artifact-fetching components: an HTTP client for
// pulling individual files and the "hub.downloader" component that mirrors a
// model repository's files into a local directory before a recipe runs.
package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"resty.dev/v3"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
)

// DefaultBaseURL is the artifact host used when a config does not name one.
const DefaultBaseURL = "https://huggingface.co"

// Client wraps the HTTP transport used for artifact fetches.
type Client struct {
	rest *resty.Client
}

// NewClient builds a Client against the given base URL. An empty token skips
// authentication.
func NewClient(baseURL, token string) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Minute).
		SetRetryCount(2)
	if token != "" {
		rest.SetAuthToken(token)
	}
	return &Client{rest: rest}
}

// FetchFile downloads one path from the base URL into destPath, creating
// parent directories as needed. The file is written atomically via a
// temporary sibling.
func (c *Client) FetchFile(ctx context.Context, urlPath, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	res, err := c.rest.R().SetContext(ctx).Get(urlPath)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", urlPath, err)
	}
	if res.IsError() {
		return fmt.Errorf("fetching %s: server returned %s", urlPath, res.Status())
	}

	tmp := destPath + ".partial"
	if err := os.WriteFile(tmp, res.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return fmt.Errorf("finalizing %s: %w", destPath, err)
	}
	return nil
}

// FetchURL downloads an absolute URL into destPath, ignoring the configured
// base URL. Used for dataset sources given as full URLs.
func (c *Client) FetchURL(ctx context.Context, rawURL, destPath string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("invalid source URL %q", rawURL)
	}
	return c.FetchFile(ctx, rawURL, destPath)
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	return c.rest.Close()
}

// IsURL reports whether a dataset/checkpoint source names a remote artifact
// rather than a local path.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// verifySHA256 compares a file's digest against the expected hex string.
func verifySHA256(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, want)
	}
	return nil
}

// Downloader mirrors a set of repository files into a local directory. It is
// constructed from config and run by the recipe layer before setup.
type Downloader struct {
	client    *Client
	repoID    string
	revision  string
	files     []string
	checksums map[string]string
	outputDir string
}

// Run fetches every configured file that is not already present locally. A
// present file with a configured checksum is verified, and refetched when
// the digest does not match.
func (d *Downloader) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("repo", d.repoID)

	for _, file := range d.files {
		dest := filepath.Join(d.outputDir, file)
		want := d.checksums[file]
		if _, err := os.Stat(dest); err == nil {
			if want == "" || verifySHA256(dest, want) == nil {
				logger.Debug("Artifact already present, skipping.", "file", file)
				continue
			}
			logger.Warn("Local artifact failed verification, refetching.", "file", file)
		}
		urlPath := fmt.Sprintf("/%s/resolve/%s/%s", d.repoID, d.revision, file)
		logger.Info("⬇️ Downloading artifact.", "file", file)
		if err := d.client.FetchFile(ctx, urlPath, dest); err != nil {
			return err
		}
		if want != "" {
			if err := verifySHA256(dest, want); err != nil {
				return err
			}
		}
	}
	return nil
}

// OutputDir returns the local directory artifacts land in.
func (d *Downloader) OutputDir() string { return d.outputDir }

// Close implements io.Closer by releasing the underlying HTTP client.
func (d *Downloader) Close() error { return d.client.Close() }
