// Package validation checks the structural invariants a project document must
// satisfy to load, and repairs what it can.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/tree"
	"github.com/projmerge/projmerge/internal/types"
)

var validate = validator.New()

// Issue is one violated invariant. Issues with a fix can be repaired in place
// by Report.Fix; the rest are left for the user.
type Issue struct {
	Component string
	Path      string
	Err       error

	fix   func()
	fixed bool
}

func (i *Issue) Error() string {
	if i.Component == "" {
		return fmt.Sprintf("%s: %v", i.Path, i.Err)
	}
	return fmt.Sprintf("component %q: %s: %v", i.Component, i.Path, i.Err)
}

func (i *Issue) Unwrap() error { return i.Err }

// Fixable reports whether the issue carries an automatic repair.
func (i *Issue) Fixable() bool { return i.fix != nil }

// Fixed reports whether the repair has been applied.
func (i *Issue) Fixed() bool { return i.fixed }

// Report is the outcome of validating one project.
type Report struct {
	Issues []*Issue
}

// OK reports whether no invariant was violated.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Fix applies every pending repair and returns how many ran. Repairs modify
// the validated project.
func (r *Report) Fix() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.fix == nil || issue.fixed {
			continue
		}
		issue.fix()
		issue.fixed = true
		n++
	}
	return n
}

// Remaining returns the issues not repaired.
func (r *Report) Remaining() []*Issue {
	var out []*Issue
	for _, issue := range r.Issues {
		if !issue.fixed {
			out = append(out, issue)
		}
	}
	return out
}

// Err returns the issues not repaired as one error, or nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, issue := range r.Remaining() {
		result = multierror.Append(result, issue)
	}
	return result.ErrorOrNil()
}

// Project validates every component of p:
//   - a component has a name and a graph
//   - a node has an id, a type, an object of parameters, and numeric x/y when present
//   - node ids are unique within the component
//   - both ends of every connection name a node of the component's tree
//
// Missing parameters, a missing graph and dangling connections are fixable.
func Project(p *types.Project) *Report {
	r := &Report{}
	if p == nil {
		return r
	}
	for i, c := range p.Components {
		if c == nil {
			r.add(&Issue{Path: fmt.Sprintf("components[%d]", i), Err: fmt.Errorf("component is null")})
			continue
		}
		component(r, c)
	}
	return r
}

func (r *Report) add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
}

func component(r *Report, c *types.Component) {
	label := c.Name
	if label == "" {
		label = c.Key().String()
	}

	if err := validate.Struct(c); err != nil {
		for _, fe := range fieldErrors(err) {
			issue := &Issue{Component: label, Path: fieldPath(fe), Err: fmt.Errorf("%s", formatFieldError(fe))}
			if fe.StructField() == "Graph" {
				issue.fix = func() { c.Graph = &types.Graph{} }
			}
			r.add(issue)
		}
	}
	if c.Graph == nil {
		return
	}

	seen := make(map[string]bool)
	tree.Walk(c.Graph.Roots, func(n, _ *types.Node) bool {
		node(r, label, n)
		if n.ID != "" {
			if seen[n.ID] {
				r.add(&Issue{Component: label, Path: nodePath(n), Err: fmt.Errorf("duplicate node id")})
			}
			seen[n.ID] = true
		}
		return true
	})

	g := c.Graph
	for _, conn := range g.Connections {
		conn := conn // per-iteration copy for fix; go.mod targets go1.21 loop semantics
		if conn == nil {
			continue
		}
		var missing []string
		if !seen[conn.FromID] {
			missing = append(missing, fmt.Sprintf("source node %q", conn.FromID))
		}
		if !seen[conn.ToID] {
			missing = append(missing, fmt.Sprintf("target node %q", conn.ToID))
		}
		if len(missing) == 0 {
			continue
		}
		r.add(&Issue{
			Component: label,
			Path:      "connections[" + conn.Key().String() + "]",
			Err:       fmt.Errorf("dangling connection: %s not found", strings.Join(missing, " and ")),
			fix: func() {
				g.Connections = slices.DeleteFunc(g.Connections, func(x *types.Connection) bool { return x == conn })
			},
		})
	}
}

func node(r *Report, component string, n *types.Node) {
	if err := validate.Struct(n); err != nil {
		for _, fe := range fieldErrors(err) {
			r.add(&Issue{Component: component, Path: nodePath(n) + "." + strings.ToLower(fe.Field()), Err: fmt.Errorf("%s", formatFieldError(fe))})
		}
	}
	if n.Type.IsZero() {
		r.add(&Issue{Component: component, Path: nodePath(n) + ".type", Err: fmt.Errorf("type is required")})
	}
	if n.Parameters == nil {
		r.add(&Issue{
			Component: component,
			Path:      nodePath(n) + ".parameters",
			Err:       fmt.Errorf("parameters must be an object"),
			fix:       func() { n.Parameters = map[string]any{} },
		})
	}
	for _, axis := range []string{"x", "y"} {
		v, ok := n.Extra[axis]
		if ok && jsonvalue.KindOf(v) != jsonvalue.Number {
			r.add(&Issue{Component: component, Path: nodePath(n) + "." + axis, Err: fmt.Errorf("must be a number, got %s", jsonvalue.KindOf(v))})
		}
	}
}

func nodePath(n *types.Node) string {
	return "nodes[" + n.ID + "]"
}

func fieldErrors(err error) validator.ValidationErrors {
	if ve, ok := err.(validator.ValidationErrors); ok {
		return ve
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
