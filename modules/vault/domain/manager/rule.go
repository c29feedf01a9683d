package manager

import (
	"fmt"
	"strings"
)

// Rule names how a person's primary manager is derived.
type Rule string

const (
	// ContractBased takes the manager recorded on the primary contract.
	ContractBased Rule = "contract"
	// DepartmentBased takes the manager of the primary contract's department.
	DepartmentBased Rule = "department"
	// Undetermined is reported when sampled data supports neither rule.
	Undetermined Rule = "undetermined"
)

func (r Rule) Determinate() bool {
	return r == ContractBased || r == DepartmentBased
}

func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case ContractBased:
		return ContractBased, nil
	case DepartmentBased:
		return DepartmentBased, nil
	case Undetermined, "":
		return Undetermined, nil
	default:
		return "", fmt.Errorf("unknown manager rule %q", s)
	}
}

// Subject is the persisted data needed to derive one person's primary manager.
type Subject struct {
	PersonExternalID string
	// RecordedManager is the primary manager stored for the person.
	RecordedManager      string
	ContractManager      string
	DepartmentExternalID string
}

type Node struct {
	ParentExternalID  string
	ManagerExternalID string
}

// Hierarchy maps a department external id to its parent and manager.
type Hierarchy map[string]Node

// Compute derives the primary manager of s under rule, or "" when none can be derived.
// Under DepartmentBased the walk moves up the parent chain while the department has
// no manager or is managed by the person themself.
func Compute(rule Rule, s Subject, h Hierarchy) string {
	switch rule {
	case ContractBased:
		return strings.TrimSpace(s.ContractManager)
	case DepartmentBased:
		visited := make(map[string]struct{})
		id := strings.TrimSpace(s.DepartmentExternalID)
		for id != "" {
			if _, ok := visited[id]; ok {
				return ""
			}
			visited[id] = struct{}{}
			node, ok := h[id]
			if !ok {
				return ""
			}
			if m := strings.TrimSpace(node.ManagerExternalID); m != "" && m != s.PersonExternalID {
				return m
			}
			id = strings.TrimSpace(node.ParentExternalID)
		}
		return ""
	default:
		return ""
	}
}
