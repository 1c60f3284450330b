package forest

import "strings"

// Filter narrows the visible set beyond collapse state. The two fields
// have deliberately asymmetric empty semantics:
//
//   - Query "" means the search filter is inactive (everything passes),
//     matching how [Forest.Search] with "" returns no matches - an empty
//     query is "no search", not "search for nothing".
//   - An empty Departments slice means no department filter (all pass);
//     a non-empty slice hides every node outside the named departments.
type Filter struct {
	Query       string
	Departments []string
}

// active reports whether the filter narrows anything.
func (flt Filter) active() bool {
	return flt.Query != "" || len(flt.Departments) > 0
}

// Search returns the IDs whose searchable payload fields (name, title,
// department, email, phone) contain the query, case-insensitively. An
// empty query returns the empty set, not the full node set.
func (f *Forest) Search(query string) map[string]bool {
	out := make(map[string]bool)
	if query == "" {
		return out
	}
	q := strings.ToLower(query)
	for id, n := range f.nodes {
		if matchesQuery(n.Employee, q) {
			out[id] = true
		}
	}
	return out
}

func matchesQuery(e Employee, q string) bool {
	for _, field := range []string{e.Name, e.Title, e.Department, e.Email, e.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// MatchDepartments returns the IDs whose department is in the given set.
// An empty set matches every node ("no filter").
func (f *Forest) MatchDepartments(departments []string) map[string]bool {
	out := make(map[string]bool, len(f.nodes))
	if len(departments) == 0 {
		for id := range f.nodes {
			out[id] = true
		}
		return out
	}
	wanted := make(map[string]bool, len(departments))
	for _, d := range departments {
		wanted[d] = true
	}
	for id, n := range f.nodes {
		if wanted[n.Employee.Department] {
			out[id] = true
		}
	}
	return out
}

// HiddenByCollapse returns the union of descendant sets of every
// collapsed node. The collapsed nodes themselves stay visible.
func (f *Forest) HiddenByCollapse() map[string]bool {
	hidden := make(map[string]bool)
	for id := range f.collapsed {
		if _, ok := f.nodes[id]; !ok {
			continue // orphaned entry for a deleted node
		}
		f.collectDescendants(id, hidden)
	}
	return hidden
}

// VisibleIDs returns the set of node IDs that survive collapse state and
// the given filter.
func (f *Forest) VisibleIDs(flt Filter) map[string]bool {
	hidden := f.HiddenByCollapse()

	var query, depts map[string]bool
	if flt.Query != "" {
		query = f.Search(flt.Query)
	}
	if len(flt.Departments) > 0 {
		depts = f.MatchDepartments(flt.Departments)
	}

	visible := make(map[string]bool, len(f.nodes))
	for id := range f.nodes {
		if hidden[id] {
			continue
		}
		if query != nil && !query[id] {
			continue
		}
		if depts != nil && !depts[id] {
			continue
		}
		visible[id] = true
	}
	return visible
}

// VisibleNodes returns the visible nodes in insertion order.
func (f *Forest) VisibleNodes(flt Filter) []*Node {
	visible := f.VisibleIDs(flt)
	out := make([]*Node, 0, len(visible))
	for _, id := range f.order {
		if visible[id] {
			out = append(out, f.nodes[id])
		}
	}
	return out
}

// VisibleEdges returns the edges whose both endpoints are visible, in
// insertion order.
func (f *Forest) VisibleEdges(flt Filter) []Edge {
	visible := f.VisibleIDs(flt)
	var out []Edge
	for _, e := range f.edges {
		if visible[e.Source] && visible[e.Target] {
			out = append(out, e)
		}
	}
	return out
}
