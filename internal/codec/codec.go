// Package codec reads and writes project documents.
package codec

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/projmerge/projmerge/internal/types"
)

// json matches encoding/json except that HTML characters are not escaped.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// DefaultIndent is the indentation the editor writes documents with.
const DefaultIndent = "    "

var (
	// ErrMalformed means the input is not a project document.
	ErrMalformed = errors.New("malformed project document")
	// ErrMissingKey means a component has neither an id nor a name.
	ErrMissingKey = errors.New("component has neither id nor name")
	// ErrDuplicateKey means two components of one document share an identity.
	ErrDuplicateKey = errors.New("duplicate component key")
)

// Parse decodes a project document and checks that every component has a
// unique identity.
func Parse(data []byte) (*types.Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	var p types.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := CheckKeys(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseAncestor decodes the common ancestor of a merge. The ancestor is
// allowed to be missing: empty input yields an empty project, and malformed
// input yields an empty project together with the parse error so the caller
// can warn and carry on.
func ParseAncestor(data []byte) (*types.Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &types.Project{}, nil
	}
	p, err := Parse(data)
	if err != nil {
		return &types.Project{}, err
	}
	return p, nil
}

// CheckKeys verifies that every component has an identity and that no two
// components share one.
func CheckKeys(p *types.Project) error {
	seen := make(map[types.EntityKey]int, len(p.Components))
	for i, c := range p.Components {
		if c == nil {
			return fmt.Errorf("%w: components[%d] is null", ErrMalformed, i)
		}
		key := c.Key()
		if key.IsZero() {
			return fmt.Errorf("%w: components[%d]", ErrMissingKey, i)
		}
		if j, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s at components[%d] and components[%d]", ErrDuplicateKey, key, j, i)
		}
		seen[key] = i
	}
	return nil
}

// Marshal encodes p with the given indentation (DefaultIndent when empty).
func Marshal(p *types.Project, indent string) ([]byte, error) {
	return MarshalValue(p, indent)
}

// MarshalValue encodes any value (projects, diff reports, conflict listings)
// with the given indentation.
func MarshalValue(v any, indent string) ([]byte, error) {
	if indent == "" {
		indent = DefaultIndent
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	// The model types encode themselves and jsoniter copies marshaler output
	// verbatim, so indentation is applied to the finished document.
	var out bytes.Buffer
	if err := stdjson.Indent(&out, compact, "", indent); err != nil {
		return nil, fmt.Errorf("indenting document: %w", err)
	}
	return out.Bytes(), nil
}
