// Package types defines the project document model: a project holds
// components, each with a node tree, a flat connection list and comments,
// plus project-wide variants, settings and metadata.
package types

import (
	"fmt"
)

// Project is the top-level document.
type Project struct {
	Name       string         `json:"name"`
	Settings   map[string]any `json:"settings,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Components []*Component   `json:"components"`
	Variants   []*Variant     `json:"variants,omitempty"`

	// Extra holds top-level members this package does not model
	// (rootNodeId, version, runtimeVersion, ...).
	Extra map[string]any `json:"-"`
}

// Component is a named graph inside a project.
type Component struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name" validate:"required"`
	Graph    *Graph         `json:"graph" validate:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Key returns the component's identity: its id when set, else its name.
func (c *Component) Key() EntityKey {
	if c.ID != "" {
		return EntityKey{Kind: KeyByID, Value: c.ID}
	}
	return EntityKey{Kind: KeyByName, Value: c.Name}
}

// Graph is the content of a component.
type Graph struct {
	Roots       []*Node        `json:"roots"`
	Connections []*Connection  `json:"connections"`
	Comments    []*Comment     `json:"comments,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Node is a graph node. Children are owned exclusively by their parent.
type Node struct {
	ID                      string                    `json:"id" validate:"required"`
	Type                    NodeType                  `json:"type"`
	Parameters              map[string]any            `json:"parameters"`
	StateParameters         map[string]map[string]any `json:"stateParameters,omitempty"`
	StateTransitions        map[string]map[string]any `json:"stateTransitions,omitempty"`
	DefaultStateTransitions map[string]any            `json:"defaultStateTransitions,omitempty"`
	Variant                 string                    `json:"variant,omitempty"`
	Ports                   []*Port                   `json:"ports"`
	Children                []*Node                   `json:"children"`

	// Conflicts is only present in a merge result.
	Conflicts Conflicts `json:"conflicts,omitempty"`

	// Annotation and DiffData are only present in a diff report.
	Annotation Annotation `json:"annotation,omitempty"`
	DiffData   *DiffData  `json:"diffData,omitempty"`

	// Extra holds x, y, label, metadata, dynamicports and anything else.
	Extra map[string]any `json:"-"`
}

// DiffData carries the base version of a changed node for before/after display.
type DiffData struct {
	Parent *Node `json:"parent,omitempty"`
}

// Port describes a node input or output.
type Port struct {
	Name  string         `json:"name"`
	Plug  string         `json:"plug,omitempty"`
	Group string         `json:"group,omitempty"`
	Type  any            `json:"type,omitempty"`
	Extra map[string]any `json:"-"`
}

// IsSourceCode reports whether the port's type declares a code editor,
// meaning the parameter of the same name holds source text.
func (p *Port) IsSourceCode() bool {
	t, ok := p.Type.(map[string]any)
	if !ok {
		return false
	}
	editor, _ := t["codeeditor"].(string)
	return editor != ""
}

// Connection links an output of one node to an input of another.
type Connection struct {
	FromID       string         `json:"fromId"`
	FromProperty string         `json:"fromProperty"`
	ToID         string         `json:"toId"`
	ToProperty   string         `json:"toProperty"`
	Annotation   Annotation     `json:"annotation,omitempty"`
	Extra        map[string]any `json:"-"`
}

// ConnectionKey identifies a connection by its endpoints.
type ConnectionKey struct {
	FromID       string
	FromProperty string
	ToID         string
	ToProperty   string
}

func (c *Connection) Key() ConnectionKey {
	return ConnectionKey{
		FromID:       c.FromID,
		FromProperty: c.FromProperty,
		ToID:         c.ToID,
		ToProperty:   c.ToProperty,
	}
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s.%s->%s.%s", k.FromID, k.FromProperty, k.ToID, k.ToProperty)
}

// Comment is a sticky note on the canvas.
type Comment struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Annotation Annotation     `json:"annotation,omitempty"`
	Extra      map[string]any `json:"-"`
}

// Variant is a named style preset for a node type.
type Variant struct {
	Name                    string                    `json:"name"`
	TypeName                string                    `json:"typename"`
	Parameters              map[string]any            `json:"parameters,omitempty"`
	StateParameters         map[string]map[string]any `json:"stateParameters,omitempty"`
	StateTransitions        map[string]map[string]any `json:"stateTransitions,omitempty"`
	DefaultStateTransitions map[string]any            `json:"defaultStateTransitions,omitempty"`
	Conflicts               Conflicts                 `json:"conflicts,omitempty"`
	Extra                   map[string]any            `json:"-"`
}

// Key returns "typename:name".
func (v *Variant) Key() string {
	return v.TypeName + ":" + v.Name
}

// Annotation marks an entity in a diff report.
type Annotation string

// Annotation constants
const (
	AnnotationCreated Annotation = "Created"
	AnnotationDeleted Annotation = "Deleted"
	AnnotationChanged Annotation = "Changed"
)

// IsValid checks if the annotation value is valid
func (a Annotation) IsValid() bool {
	switch a {
	case "", AnnotationCreated, AnnotationDeleted, AnnotationChanged:
		return true
	}
	return false
}

// KeyKind says which member an EntityKey was taken from.
type KeyKind int

const (
	KeyByID KeyKind = iota
	KeyByName
)

// EntityKey is a component identity. Components with an id are keyed by id;
// only components without one fall back to their name. The two kinds never
// compare equal, so an id "x" and a name "x" are different components.
type EntityKey struct {
	Kind  KeyKind
	Value string
}

func (k EntityKey) String() string {
	if k.Kind == KeyByName {
		return "name:" + k.Value
	}
	return "id:" + k.Value
}

// IsZero reports whether the key has no value.
func (k EntityKey) IsZero() bool {
	return k.Value == ""
}
