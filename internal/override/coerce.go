package override

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/mirceamironenco/tunekit/internal/cfgerr"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/loader/yamlload"
)

// coerce converts a raw override string into a value matching the kind and
// scalar type of the existing value at the path.
func coerce(raw string, existing *document.Value, pathStr string) (*document.Value, error) {
	switch existing.Kind() {
	case document.KindScalar:
		scalar, err := coerceScalar(raw, existing.Scalar(), pathStr)
		if err != nil {
			return nil, err
		}
		return document.NewScalar(scalar, existing.Range()), nil

	case document.KindList:
		val, err := inferValue(raw, pathStr)
		if err != nil {
			return nil, err
		}
		if val.Kind() != document.KindList {
			return nil, &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: raw, Expected: "list",
				Reason: "existing value is a list",
			}
		}
		return val, nil

	case document.KindMapping, document.KindComponent:
		val, err := inferValue(raw, pathStr)
		if err != nil {
			return nil, err
		}
		if val.Kind() != document.KindMapping && val.Kind() != document.KindComponent {
			return nil, &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: raw, Expected: existing.Kind().String(),
				Reason: "existing value is structured; the override must parse as a mapping",
			}
		}
		return val, nil
	}

	return nil, &cfgerr.OverrideTypeError{Path: pathStr, Raw: raw, Reason: "unsupported target kind"}
}

// coerceScalar converts raw using the static type of the existing scalar. A
// null target carries no type information, so the type is inferred.
func coerceScalar(raw string, existing cty.Value, pathStr string) (cty.Value, error) {
	if existing.IsNull() {
		val, err := inferValue(raw, pathStr)
		if err != nil {
			return cty.NilVal, err
		}
		if val.Kind() != document.KindScalar {
			return cty.NilVal, &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: raw, Expected: "scalar",
				Reason: "existing value is a scalar",
			}
		}
		return val.Scalar(), nil
	}

	switch existing.Type() {
	case cty.String:
		// Strings take the raw text verbatim; no quoting layer applies.
		return cty.StringVal(raw), nil

	case cty.Bool:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return cty.NilVal, &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: raw, Expected: "bool",
				Reason: "cannot parse as bool",
			}
		}
		return cty.BoolVal(b), nil

	case cty.Number:
		num, err := cty.ParseNumberVal(strings.TrimSpace(raw))
		if err != nil {
			return cty.NilVal, &cfgerr.OverrideTypeError{
				Path: pathStr, Raw: raw, Expected: "number",
				Reason: "cannot parse as number",
			}
		}
		return num, nil
	}

	return cty.NilVal, &cfgerr.OverrideTypeError{
		Path: pathStr, Raw: raw,
		Expected: existing.Type().FriendlyName(),
		Reason:   "unsupported scalar type",
	}
}

// inferValue types a raw string with no existing value to guide it. The YAML
// scalar grammar gives exactly the attempted-parse order the launcher
// documents: bool, int, float, flow list/mapping, then string.
func inferValue(raw string, pathStr string) (*document.Value, error) {
	val, err := yamlload.FromString(raw, pathStr)
	if err != nil {
		// Raw strings that are not valid YAML fragments (e.g. "a: b: c")
		// degrade to plain strings rather than failing the override.
		return document.NewScalar(cty.StringVal(raw), document.SourceRange{}), nil
	}
	return val, nil
}
