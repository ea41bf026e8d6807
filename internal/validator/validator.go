// Package validator checks whether a flow may be saved.
//
// A flow has a single starting point: at most one node may lack an incoming
// edge. Graphs with zero or one node are always valid. A graph in which
// every node has an incoming edge (so there is no root at all, which implies
// a cycle covering every node) is accepted as well.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/project-sai/chatflow/internal/flow"
)

// RuleMultipleRoots names the single validation rule.
const RuleMultipleRoots = "MultipleRoots"

// ErrMultipleRoots is matched by every *MultipleRootsError.
var ErrMultipleRoots = errors.New("multiple root nodes")

// MultipleRootsError reports a flow with more than one root node.
type MultipleRootsError struct {
	Count   int
	NodeIDs []string
}

func (e *MultipleRootsError) Error() string {
	quoted := make([]string, len(e.NodeIDs))
	for i, id := range e.NodeIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("%s: %d nodes have no incoming edges (%s); a flow must have exactly one starting point",
		RuleMultipleRoots, e.Count, strings.Join(quoted, ", "))
}

// Is lets errors.Is match ErrMultipleRoots.
func (e *MultipleRootsError) Is(target error) bool {
	return target == ErrMultipleRoots
}

// Result is the verdict of Validate.
type Result struct {
	OK bool
	// Rule is the violated rule, empty when OK.
	Rule string
	// Reason is a human-readable explanation, empty when OK.
	Reason string
	// Roots lists the nodes without an incoming edge, in graph order.
	Roots []string
}

// Err returns the violation as an error, or nil when the result is OK.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &MultipleRootsError{Count: len(r.Roots), NodeIDs: r.Roots}
}

// Roots returns the ids of the nodes that no edge points at, in node order.
func Roots(g flow.Graph) []string {
	targeted := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		targeted[e.Target] = struct{}{}
	}

	roots := make([]string, 0, 1)
	for _, n := range g.Nodes {
		if _, ok := targeted[n.ID]; !ok {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Validate checks the single-root rule. It has no side effects.
func Validate(g flow.Graph) Result {
	roots := Roots(g)
	if len(g.Nodes) <= 1 || len(roots) <= 1 {
		return Result{OK: true, Roots: roots}
	}

	err := &MultipleRootsError{Count: len(roots), NodeIDs: roots}
	return Result{
		OK:     false,
		Rule:   RuleMultipleRoots,
		Reason: err.Error(),
		Roots:  roots,
	}
}
