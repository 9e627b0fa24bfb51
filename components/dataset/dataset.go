// Package dataset provides the supervised fine-tuning dataset components:
// a JSONL-backed SFT dataset with prompt masking, a grammar-correction
// preset over it, and sequence packing up to the tokenizer's max length.
package dataset

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mirceamironenco/tunekit/components/hub"
	"github.com/mirceamironenco/tunekit/components/tokenizer"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
)

// IgnoreIndex marks label positions excluded from the loss, matching the
// usual cross-entropy ignore convention.
const IgnoreIndex = -100

// Sample is one tokenized training example. Labels align one-to-one with
// Tokens; masked positions hold IgnoreIndex.
type Sample struct {
	Tokens []int
	Labels []int
}

// Dataset is the contract the recipe layer iterates over.
type Dataset interface {
	Len() int
	At(i int) Sample
	Tokenizer() tokenizer.Tokenizer
}

// SFTDataset holds tokenized input/output pairs read from a JSONL source.
type SFTDataset struct {
	samples []Sample
	tok     tokenizer.Tokenizer
}

// Len implements Dataset.
func (d *SFTDataset) Len() int { return len(d.samples) }

// At implements Dataset.
func (d *SFTDataset) At(i int) Sample { return d.samples[i] }

// Tokenizer implements Dataset.
func (d *SFTDataset) Tokenizer() tokenizer.Tokenizer { return d.tok }

// sftOptions parametrize loadSFT; the factories fill them from config.
type sftOptions struct {
	source          string
	columnMap       map[string]string
	trainOnInput    bool
	newSystemPrompt string
	promptTemplate  string // must contain {input} when set
}

// loadSFT reads a JSONL source (local path or http(s) URL), applies the
// column map and template, and tokenizes every row eagerly. Remote sources
// are cached under the user cache directory keyed by URL hash.
func loadSFT(ctx context.Context, tok tokenizer.Tokenizer, opts sftOptions) (*SFTDataset, error) {
	logger := ctxlog.FromContext(ctx)

	path := opts.source
	if hub.IsURL(opts.source) {
		cached, err := fetchToCache(ctx, opts.source)
		if err != nil {
			return nil, err
		}
		path = cached
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset source: %w", err)
	}
	defer f.Close()

	inputCol, outputCol := "input", "output"
	if c, ok := opts.columnMap["input"]; ok {
		inputCol = c
	}
	if c, ok := opts.columnMap["output"]; ok {
		outputCol = c
	}

	ds := &SFTDataset{tok: tok}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var row map[string]string
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, fmt.Errorf("dataset source %s line %d: %w", path, line, err)
		}
		input, ok := row[inputCol]
		if !ok {
			return nil, fmt.Errorf("dataset source %s line %d: no column %q", path, line, inputCol)
		}
		output, ok := row[outputCol]
		if !ok {
			return nil, fmt.Errorf("dataset source %s line %d: no column %q", path, line, outputCol)
		}

		prompt := input
		if opts.promptTemplate != "" {
			prompt = strings.ReplaceAll(opts.promptTemplate, "{input}", input)
		}
		if opts.newSystemPrompt != "" {
			prompt = opts.newSystemPrompt + "\n" + prompt
		}

		promptIDs := tok.Encode(prompt, true, false)
		outputIDs := tok.Encode(output, false, true)

		tokens := append(append([]int{}, promptIDs...), outputIDs...)
		labels := make([]int, len(tokens))
		for i := range labels {
			if i < len(promptIDs) && !opts.trainOnInput {
				labels[i] = IgnoreIndex
			} else {
				labels[i] = tokens[i]
			}
		}
		if max := tok.MaxSeqLen(); max > 0 && len(tokens) > max {
			tokens = tokens[:max]
			labels = labels[:max]
		}
		ds.samples = append(ds.samples, Sample{Tokens: tokens, Labels: labels})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset source: %w", err)
	}
	if len(ds.samples) == 0 {
		return nil, fmt.Errorf("dataset source %s contains no samples", path)
	}

	logger.Debug("Dataset loaded.", "source", opts.source, "samples", len(ds.samples))
	return ds, nil
}

// fetchToCache downloads a remote dataset source once per URL.
func fetchToCache(ctx context.Context, rawURL string) (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	sum := sha256.Sum256([]byte(rawURL))
	dest := filepath.Join(cacheRoot, "tunekit", "datasets", hex.EncodeToString(sum[:8])+".jsonl")
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	client := hub.NewClient("", "")
	defer client.Close()
	if err := client.FetchURL(ctx, rawURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
