package mirror

import (
	"bytes"
	"context"
	"fmt"
	"sort"
)

// Transform rewrites exported document bytes before they are written
type Transform func(ctx context.Context, data []byte) ([]byte, error)

// Built-in transform names
const (
	TransformIdentity          = "identity"
	TransformNormalizeNewlines = "normalize-newlines"
)

var builtinTransforms = map[string]Transform{
	TransformIdentity:          IdentityTransform,
	TransformNormalizeNewlines: NormalizeNewlines,
}

// IdentityTransform returns data unchanged
func IdentityTransform(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF
func NormalizeNewlines(_ context.Context, data []byte) ([]byte, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n")), nil
}

// LookupTransform resolves a built-in transform by name. The empty name is identity.
func LookupTransform(name string) (Transform, error) {
	if name == "" {
		return IdentityTransform, nil
	}
	t, ok := builtinTransforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q (available: %v)", name, TransformNames())
	}
	return t, nil
}

// TransformNames lists the built-in transforms
func TransformNames() []string {
	names := make([]string, 0, len(builtinTransforms))
	for name := range builtinTransforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
