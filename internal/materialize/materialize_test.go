package materialize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/loader/yamlload"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// probe is a component whose construction and closing are observable.
type probe struct {
	name   string
	events *[]string
	child  *probe
}

func (p *probe) Close() error {
	*p.events = append(*p.events, "close:"+p.name)
	return nil
}

type probeInput struct {
	Name  string `cfg:"name"`
	Child *probe `cfg:"child,optional"`
	Fail  bool   `cfg:"fail,optional"`
}

func probeRegistry(events *[]string) *registry.Registry {
	r := registry.New()
	r.Register("test.probe", &registry.Factory{
		NewInput: func() any { return new(probeInput) },
		Fn: func(ctx context.Context, input *probeInput) (*probe, error) {
			if input.Fail {
				return nil, errors.New("constructor exploded")
			}
			*events = append(*events, "build:"+input.Name)
			return &probe{name: input.Name, events: events, child: input.Child}, nil
		},
	})
	return r
}

func loadDoc(t *testing.T, content string) *document.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	doc, err := yamlload.New().LoadFile(context.Background(), path)
	require.NoError(t, err)
	return doc
}

func TestMaterialize_PlainValues(t *testing.T) {
	doc := loadDoc(t, `
output_dir: /tmp/out
epochs: 3
seeds: [1, 2]
settings:
  debug: true
`)
	var events []string
	result, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.NoError(t, err)

	dir, err := Field[string](result, "output_dir")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", dir)

	epochs, err := Field[int64](result, "epochs")
	require.NoError(t, err)
	assert.Equal(t, int64(3), epochs)

	seeds, err := Field[[]any](result, "seeds")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, seeds)

	settings, err := Field[map[string]any](result, "settings")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"debug": true}, settings)

	assert.Empty(t, result.Components())
	assert.Equal(t, []string{"output_dir", "epochs", "seeds", "settings"}, result.Fields())
}

func TestMaterialize_ChildrenBeforeParents(t *testing.T) {
	doc := loadDoc(t, `
outer:
  _component_: test.probe
  name: parent
  child:
    _component_: test.probe
    name: kid
`)
	var events []string
	result, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"build:kid", "build:parent"}, events)

	built := result.Components()
	require.Len(t, built, 2)
	assert.Equal(t, "outer.child", built[0].Path)
	assert.Equal(t, "outer", built[1].Path)

	parent, err := Field[*probe](result, "outer")
	require.NoError(t, err)
	require.NotNil(t, parent.child)
	assert.Equal(t, "kid", parent.child.name)
}

func TestMaterialize_CloseReverseOrder(t *testing.T) {
	doc := loadDoc(t, `
outer:
  _component_: test.probe
  name: parent
  child:
    _component_: test.probe
    name: kid
`)
	var events []string
	result, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.NoError(t, err)

	events = events[:0]
	require.NoError(t, result.Close())
	assert.Equal(t, []string{"close:parent", "close:kid"}, events)
}

func TestMaterialize_UnknownComponent(t *testing.T) {
	doc := loadDoc(t, `
thing:
  _component_: test.unregistered
`)
	var events []string
	_, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.Error(t, err)

	var unknownErr *cfgerr.UnknownComponentError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "thing", unknownErr.Path)
	assert.Equal(t, "test.unregistered", unknownErr.Component)
}

func TestMaterialize_ArgumentErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "unknown argument", content: "p:\n  _component_: test.probe\n  name: x\n  typo: 1\n"},
		{name: "missing required", content: "p:\n  _component_: test.probe\n"},
		{name: "wrong type", content: "p:\n  _component_: test.probe\n  name: [1]\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var events []string
			_, err := New(probeRegistry(&events)).Materialize(context.Background(), loadDoc(t, tc.content))
			require.Error(t, err)

			var consErr *cfgerr.ConstructionError
			assert.ErrorAs(t, err, &consErr)
		})
	}
}

func TestMaterialize_PartialResultOnFailure(t *testing.T) {
	// The first field builds, the second fails; the caller gets both the
	// error and the partial result holding what was already constructed.
	doc := loadDoc(t, `
good:
  _component_: test.probe
  name: first
bad:
  _component_: test.probe
  name: second
  fail: true
`)
	var events []string
	result, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.Error(t, err)
	require.NotNil(t, result)

	var consErr *cfgerr.ConstructionError
	require.ErrorAs(t, err, &consErr)
	assert.Equal(t, "bad", consErr.Path)

	require.Len(t, result.Components(), 1)
	assert.Equal(t, "good", result.Components()[0].Path)

	require.NoError(t, result.Close())
	assert.Contains(t, events, "close:first")
}

func TestField_TypeMismatch(t *testing.T) {
	doc := loadDoc(t, "epochs: 3\n")
	var events []string
	result, err := New(probeRegistry(&events)).Materialize(context.Background(), doc)
	require.NoError(t, err)

	_, err = Field[string](result, "epochs")
	assert.Error(t, err)

	_, err = Field[int64](result, "missing")
	assert.Error(t, err)

	v, ok, err := OptionalField[int64](result, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
}
