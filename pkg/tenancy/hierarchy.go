package tenancy

import (
	"sort"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// TenantNode is a tenant with its subsidiaries.
type TenantNode struct {
	Tenant   *domain.Tenant
	Children []*TenantNode
}

// BuildTree assembles the subtree rooted at rootID from flat tenant rows.
// Children are ordered by name. A row whose parent chain loops is never
// reached from the root, so the walk always terminates.
func BuildTree(tenants []*domain.Tenant, rootID uuid.UUID) (*TenantNode, error) {
	byID := make(map[uuid.UUID]*domain.Tenant, len(tenants))
	children := make(map[uuid.UUID][]*domain.Tenant)
	for _, t := range tenants {
		byID[t.ID] = t
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], t)
		}
	}

	root, ok := byID[rootID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	visited := map[uuid.UUID]bool{rootID: true}
	var build func(t *domain.Tenant) *TenantNode
	build = func(t *domain.Tenant) *TenantNode {
		node := &TenantNode{Tenant: t}
		kids := children[t.ID]
		sort.Slice(kids, func(i, j int) bool { return kids[i].Name < kids[j].Name })
		for _, child := range kids {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			node.Children = append(node.Children, build(child))
		}
		return node
	}
	return build(root), nil
}

// CreatesCycle reports whether making parentID the parent of childID would
// put childID on its own ancestor chain.
func CreatesCycle(tenants []*domain.Tenant, childID, parentID uuid.UUID) bool {
	parents := make(map[uuid.UUID]*uuid.UUID, len(tenants))
	for _, t := range tenants {
		parents[t.ID] = t.ParentID
	}
	return closesLoop(parents, childID, parentID)
}

// closesLoop walks the ancestor chain of parentID through parents.
func closesLoop(parents map[uuid.UUID]*uuid.UUID, childID, parentID uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	for cur := &parentID; cur != nil; cur = parents[*cur] {
		if *cur == childID {
			return true
		}
		if seen[*cur] {
			// Existing data already loops; refuse to extend it.
			return true
		}
		seen[*cur] = true
	}
	return false
}
