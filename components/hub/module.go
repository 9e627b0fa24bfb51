package hub

import (
	"context"
	"fmt"

	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the "hub.downloader" component.
type Input struct {
	RepoID    string   `cfg:"repo_id"`
	OutputDir string   `cfg:"output_dir"`
	Files     []string `cfg:"files"`
	Revision  string   `cfg:"revision,optional"`
	BaseURL   string   `cfg:"base_url,optional"`
	Token     string   `cfg:"token,optional"`

	// Checksums maps file names to expected sha256 hex digests.
	Checksums map[string]string `cfg:"checksums,optional"`
}

// NewDownloader is the factory behind "hub.downloader".
func NewDownloader(ctx context.Context, input *Input) (*Downloader, error) {
	if input.RepoID == "" {
		return nil, fmt.Errorf("repo_id cannot be empty")
	}
	if len(input.Files) == 0 {
		return nil, fmt.Errorf("files cannot be empty")
	}
	baseURL := input.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	revision := input.Revision
	if revision == "" {
		revision = "main"
	}
	return &Downloader{
		client:    NewClient(baseURL, input.Token),
		repoID:    input.RepoID,
		revision:  revision,
		files:     input.Files,
		checksums: input.Checksums,
		outputDir: input.OutputDir,
	}, nil
}

// Register registers the downloader factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("hub.downloader", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewDownloader,
	})
}
