package override

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/loader/yamlload"
)

const testConfig = `
output_dir: /tmp/out
epochs: 3
packed: false
model:
  _component_: models.lora_llama2_7b
  lora_attn_modules: [q_proj, v_proj]
  lora_rank: 8
  lora_alpha: 16
settings:
  seed: 42
`

func loadTestDoc(t *testing.T) *document.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	doc, err := yamlload.New().LoadFile(context.Background(), path)
	require.NoError(t, err)
	return doc
}

func apply(t *testing.T, doc *document.Document, args ...string) error {
	t.Helper()
	overrides, err := ParseAll(args)
	require.NoError(t, err)
	return Apply(context.Background(), doc, overrides)
}

func lookup(t *testing.T, doc *document.Document, raw string) *document.Value {
	t.Helper()
	path, err := document.ParsePath(raw)
	require.NoError(t, err)
	v, err := doc.Lookup(path)
	require.NoError(t, err)
	return v
}

func TestParse_Grammar(t *testing.T) {
	testCases := []struct {
		name string
		arg  string
		mode Mode
		path string
		raw  string
	}{
		{name: "set", arg: "model.lora_rank=32", mode: ModeSet, path: "model.lora_rank", raw: "32"},
		{name: "append", arg: "+model.lora_dropout=0.1", mode: ModeAppend, path: "model.lora_dropout", raw: "0.1"},
		{name: "remove", arg: "~settings.seed", mode: ModeRemove, path: "settings.seed"},
		{name: "value with equals", arg: "note=a=b", mode: ModeSet, path: "note", raw: "a=b"},
		{name: "empty value", arg: "note=", mode: ModeSet, path: "note", raw: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := Parse(tc.arg)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, o.Mode)
			assert.Equal(t, tc.path, o.Path.String())
			assert.Equal(t, tc.raw, o.Raw)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, arg := range []string{"no-equals", "~settings.seed=5", "=5", "a..b=1"} {
		t.Run(arg, func(t *testing.T) {
			_, err := Parse(arg)
			assert.Error(t, err)
		})
	}
}

func TestApply_CoercesToExistingType(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc,
		"model.lora_rank=32",
		"epochs=5",
		"packed=true",
		"output_dir=123",
	))

	rank := lookup(t, doc, "model.lora_rank").Scalar()
	assert.Equal(t, cty.Number, rank.Type())
	i, _ := rank.AsBigFloat().Int64()
	assert.Equal(t, int64(32), i)

	assert.Equal(t, cty.Bool, lookup(t, doc, "packed").Scalar().Type())
	assert.True(t, lookup(t, doc, "packed").Scalar().True())

	// An existing string keeps the raw text verbatim, digits included.
	outDir := lookup(t, doc, "output_dir").Scalar()
	assert.Equal(t, cty.String, outDir.Type())
	assert.Equal(t, "123", outDir.AsString())
}

func TestApply_CoercionFailure(t *testing.T) {
	doc := loadTestDoc(t)
	err := apply(t, doc, "epochs=banana")
	require.Error(t, err)

	var typeErr *cfgerr.OverrideTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "epochs", typeErr.Path)
}

func TestApply_ClosedComponentMapping(t *testing.T) {
	doc := loadTestDoc(t)

	err := apply(t, doc, "model.missing_field=5")
	require.Error(t, err)

	var typeErr *cfgerr.OverrideTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "model.missing_field", typeErr.Path)
	assert.Contains(t, typeErr.Error(), "'+'")
}

func TestApply_OpenMappingAcceptsNewKeys(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "settings.debug=true"))

	v := lookup(t, doc, "settings.debug").Scalar()
	assert.Equal(t, cty.Bool, v.Type())
}

func TestApply_AppendForcesNewComponentArg(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "+model.lora_dropout=0.1"))

	v := lookup(t, doc, "model.lora_dropout").Scalar()
	assert.Equal(t, cty.Number, v.Type())

	// Appending over an existing key is rejected.
	err := apply(t, doc, "+model.lora_rank=4")
	require.Error(t, err)
}

func TestApply_Remove(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "~settings.seed"))

	path, err := document.ParsePath("settings.seed")
	require.NoError(t, err)
	_, err = doc.Lookup(path)
	assert.Error(t, err)

	// Removing it again fails: the key is gone.
	assert.Error(t, apply(t, doc, "~settings.seed"))
}

func TestApply_ListOverride(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "model.lora_attn_modules=[q_proj, k_proj, v_proj]"))

	v := lookup(t, doc, "model.lora_attn_modules")
	require.Equal(t, document.KindList, v.Kind())
	assert.Len(t, v.List(), 3)

	// A scalar cannot replace a list.
	assert.Error(t, apply(t, doc, "model.lora_attn_modules=q_proj"))
}

func TestApply_Idempotent(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "model.lora_rank=32", "model.lora_rank=32"))

	once := loadTestDoc(t)
	require.NoError(t, apply(t, once, "model.lora_rank=32"))

	assert.True(t, doc.Equal(once), "re-applying the same override changes nothing")
}

func TestApply_LeftToRightLastWins(t *testing.T) {
	doc := loadTestDoc(t)
	require.NoError(t, apply(t, doc, "epochs=5", "epochs=9"))

	i, _ := lookup(t, doc, "epochs").Scalar().AsBigFloat().Int64()
	assert.Equal(t, int64(9), i)
}
