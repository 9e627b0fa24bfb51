package override

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
)

// Mode distinguishes the three override forms.
type Mode int

const (
	// ModeSet replaces the value at an existing path.
	ModeSet Mode = iota
	// ModeAppend adds a new key, bypassing the closed-mapping check.
	ModeAppend
	// ModeRemove deletes an existing key.
	ModeRemove
)

// Override is one parsed command-line assignment.
type Override struct {
	Path document.Path
	Raw  string
	Mode Mode
}

// Parse parses a single command-line override argument.
func Parse(arg string) (Override, error) {
	mode := ModeSet
	body := arg
	switch {
	case strings.HasPrefix(arg, "+"):
		mode = ModeAppend
		body = arg[1:]
	case strings.HasPrefix(arg, "~"):
		mode = ModeRemove
		body = arg[1:]
	}

	if mode == ModeRemove {
		if strings.Contains(body, "=") {
			return Override{}, fmt.Errorf("override %q: removal takes no value", arg)
		}
		path, err := document.ParsePath(body)
		if err != nil {
			return Override{}, fmt.Errorf("override %q: %w", arg, err)
		}
		return Override{Path: path, Mode: mode}, nil
	}

	key, raw, found := strings.Cut(body, "=")
	if !found {
		return Override{}, fmt.Errorf("override %q: expected KEY=VALUE", arg)
	}
	path, err := document.ParsePath(key)
	if err != nil {
		return Override{}, fmt.Errorf("override %q: %w", arg, err)
	}
	return Override{Path: path, Raw: raw, Mode: mode}, nil
}

// ParseAll parses a sequence of override arguments, preserving order.
func ParseAll(args []string) ([]Override, error) {
	overrides := make([]Override, 0, len(args))
	for _, arg := range args {
		o, err := Parse(arg)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// Apply mutates the document in place, applying each override left to right.
// The first failing override aborts with an *cfgerr.OverrideTypeError.
func Apply(ctx context.Context, doc *document.Document, overrides []Override) error {
	logger := ctxlog.FromContext(ctx)
	for _, o := range overrides {
		if err := applyOne(doc, o); err != nil {
			return err
		}
		logger.Debug("Applied override.", "path", o.Path.String(), "mode", int(o.Mode))
	}
	return nil
}

func applyOne(doc *document.Document, o Override) error {
	pathStr := o.Path.String()

	switch o.Mode {
	case ModeRemove:
		last := o.Path[len(o.Path)-1]
		if last.HasIndex() {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: "cannot remove a list element"}
		}
		parent, _, err := doc.LookupParent(o.Path)
		if err != nil {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: err.Error()}
		}
		if _, ok := parent.Get(last.Key); !ok {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: "cannot remove a key that does not exist"}
		}
		parent.Delete(last.Key)
		return nil

	case ModeAppend:
		if _, err := doc.Lookup(o.Path); err == nil {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: "key already exists; drop the '+' prefix to replace it"}
		}
		last := o.Path[len(o.Path)-1]
		if last.HasIndex() {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: "cannot append at a list index"}
		}
		parent, _, err := doc.LookupParent(o.Path)
		if err != nil {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: err.Error()}
		}
		val, err := inferValue(o.Raw, pathStr)
		if err != nil {
			return err
		}
		parent.Set(last.Key, val)
		return nil

	default: // ModeSet
		existing, lookupErr := doc.Lookup(o.Path)
		if lookupErr == nil {
			replacement, err := coerce(o.Raw, existing, pathStr)
			if err != nil {
				return err
			}
			existing.Replace(replacement)
			return nil
		}

		// The path is absent: allowed only when the parent is an open
		// (plain) mapping. Component argument mappings are closed because
		// the factory's parameter surface is fixed.
		last := o.Path[len(o.Path)-1]
		if last.HasIndex() {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: lookupErr.Error()}
		}
		parent, closed, err := doc.LookupParent(o.Path)
		if err != nil {
			return &cfgerr.OverrideTypeError{Path: pathStr, Raw: o.Raw, Reason: err.Error()}
		}
		if closed {
			return &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: o.Raw,
				Reason: "component arguments do not accept new keys (use the '+' prefix to force)",
			}
		}
		val, err := inferValue(o.Raw, pathStr)
		if err != nil {
			return err
		}
		parent.Set(last.Key, val)
		return nil
	}
}
