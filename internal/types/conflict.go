package types

import (
	"encoding/json"
	"fmt"
)

// ConflictKind names the field family a conflict was recorded on.
type ConflictKind string

// Conflict kind constants
const (
	ConflictParameter              ConflictKind = "parameter"
	ConflictStateParameter         ConflictKind = "stateParameter"
	ConflictStateTransition        ConflictKind = "stateTransition"
	ConflictDefaultStateTransition ConflictKind = "defaultStateTransition"
	ConflictVariant                ConflictKind = "variant"
	ConflictTypename               ConflictKind = "typename"
	ConflictSourceCode             ConflictKind = "sourceCode"
)

// IsValid checks if the conflict kind value is valid
func (k ConflictKind) IsValid() bool {
	switch k {
	case ConflictParameter, ConflictStateParameter, ConflictStateTransition,
		ConflictDefaultStateTransition, ConflictVariant, ConflictTypename, ConflictSourceCode:
		return true
	}
	return false
}

// Conflict is a recorded, non-blocking disagreement between ours and theirs.
// The set of implementations is closed; switch on the concrete type.
type Conflict interface {
	Kind() ConflictKind
	// Field is the parameter, transition or attribute the conflict is about.
	Field() string
	isConflict()
}

// ParameterConflict: both sides changed a parameter differently.
type ParameterConflict struct {
	Name   string
	Ours   any
	Theirs any
}

// StateParameterConflict: both sides changed a per-state parameter differently.
type StateParameterConflict struct {
	State  string
	Name   string
	Ours   any
	Theirs any
}

// StateTransitionConflict: both sides changed a state transition differently.
type StateTransitionConflict struct {
	State  string
	Name   string
	Ours   any
	Theirs any
}

// DefaultStateTransitionConflict: both sides changed a default transition differently.
type DefaultStateTransitionConflict struct {
	Name   string
	Ours   any
	Theirs any
}

// VariantConflict: both sides pointed the node at different variants.
type VariantConflict struct {
	Ours   string
	Theirs string
}

// TypenameConflict: both sides changed the node type differently.
type TypenameConflict struct {
	Ours   NodeType
	Theirs NodeType
}

// SourceCodeConflict: a source text parameter merged with overlapping edits.
// Merged holds the diff3 output including conflict blocks.
type SourceCodeConflict struct {
	Name        string
	Ours        string
	Theirs      string
	Merged      string
	HasConflict bool
}

func (ParameterConflict) Kind() ConflictKind              { return ConflictParameter }
func (StateParameterConflict) Kind() ConflictKind         { return ConflictStateParameter }
func (StateTransitionConflict) Kind() ConflictKind        { return ConflictStateTransition }
func (DefaultStateTransitionConflict) Kind() ConflictKind { return ConflictDefaultStateTransition }
func (VariantConflict) Kind() ConflictKind                { return ConflictVariant }
func (TypenameConflict) Kind() ConflictKind               { return ConflictTypename }
func (SourceCodeConflict) Kind() ConflictKind             { return ConflictSourceCode }

func (c ParameterConflict) Field() string              { return c.Name }
func (c StateParameterConflict) Field() string         { return c.Name }
func (c StateTransitionConflict) Field() string        { return c.Name }
func (c DefaultStateTransitionConflict) Field() string { return c.Name }
func (VariantConflict) Field() string                  { return "variant" }
func (TypenameConflict) Field() string                 { return "type" }
func (c SourceCodeConflict) Field() string             { return c.Name }

func (ParameterConflict) isConflict()              {}
func (StateParameterConflict) isConflict()         {}
func (StateTransitionConflict) isConflict()        {}
func (DefaultStateTransitionConflict) isConflict() {}
func (VariantConflict) isConflict()                {}
func (TypenameConflict) isConflict()               {}
func (SourceCodeConflict) isConflict()             {}

// Conflicts is the list attached to a merged node or variant.
type Conflicts []Conflict

// conflictRecord is the on-disk shape shared by every conflict kind.
type conflictRecord struct {
	Type        ConflictKind `json:"type"`
	Name        string       `json:"name"`
	State       string       `json:"state,omitempty"`
	Ours        any          `json:"ours"`
	Theirs      any          `json:"theirs"`
	Merged      *string      `json:"merged,omitempty"`
	HasConflict *bool        `json:"hasConflict,omitempty"`
}

func toRecord(c Conflict) conflictRecord {
	r := conflictRecord{Type: c.Kind(), Name: c.Field()}
	switch c := c.(type) {
	case ParameterConflict:
		r.Ours, r.Theirs = c.Ours, c.Theirs
	case StateParameterConflict:
		r.State, r.Ours, r.Theirs = c.State, c.Ours, c.Theirs
	case StateTransitionConflict:
		r.State, r.Ours, r.Theirs = c.State, c.Ours, c.Theirs
	case DefaultStateTransitionConflict:
		r.Ours, r.Theirs = c.Ours, c.Theirs
	case VariantConflict:
		r.Ours, r.Theirs = c.Ours, c.Theirs
	case TypenameConflict:
		r.Ours, r.Theirs = c.Ours, c.Theirs
	case SourceCodeConflict:
		merged, has := c.Merged, c.HasConflict
		r.Ours, r.Theirs = c.Ours, c.Theirs
		r.Merged, r.HasConflict = &merged, &has
	}
	return r
}

func fromRecord(r conflictRecord) (Conflict, error) {
	switch r.Type {
	case ConflictParameter:
		return ParameterConflict{Name: r.Name, Ours: r.Ours, Theirs: r.Theirs}, nil
	case ConflictStateParameter:
		return StateParameterConflict{State: r.State, Name: r.Name, Ours: r.Ours, Theirs: r.Theirs}, nil
	case ConflictStateTransition:
		return StateTransitionConflict{State: r.State, Name: r.Name, Ours: r.Ours, Theirs: r.Theirs}, nil
	case ConflictDefaultStateTransition:
		return DefaultStateTransitionConflict{Name: r.Name, Ours: r.Ours, Theirs: r.Theirs}, nil
	case ConflictVariant:
		ours, _ := r.Ours.(string)
		theirs, _ := r.Theirs.(string)
		return VariantConflict{Ours: ours, Theirs: theirs}, nil
	case ConflictTypename:
		return TypenameConflict{Ours: nodeTypeFromValue(r.Ours), Theirs: nodeTypeFromValue(r.Theirs)}, nil
	case ConflictSourceCode:
		c := SourceCodeConflict{Name: r.Name}
		c.Ours, _ = r.Ours.(string)
		c.Theirs, _ = r.Theirs.(string)
		if r.Merged != nil {
			c.Merged = *r.Merged
		}
		if r.HasConflict != nil {
			c.HasConflict = *r.HasConflict
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown conflict type %q", r.Type)
	}
}

func nodeTypeFromValue(v any) NodeType {
	switch t := v.(type) {
	case string:
		return NodeType{Name: t}
	case map[string]any:
		name, _ := t["name"].(string)
		return NodeType{Name: name, Descriptor: t}
	default:
		return NodeType{}
	}
}

func (cs Conflicts) MarshalJSON() ([]byte, error) {
	records := make([]conflictRecord, len(cs))
	for i, c := range cs {
		records[i] = toRecord(c)
	}
	return wire.Marshal(records)
}

func (cs *Conflicts) UnmarshalJSON(data []byte) error {
	var records []conflictRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	if records == nil {
		*cs = nil
		return nil
	}
	out := make(Conflicts, 0, len(records))
	for _, r := range records {
		c, err := fromRecord(r)
		if err != nil {
			return err
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}
