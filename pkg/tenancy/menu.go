package tenancy

import (
	"sort"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// MenuNode is a menu entry with its sub-entries.
type MenuNode struct {
	Menu     *domain.Menu
	Children []*MenuNode
}

// BuildMenuTree assembles the menu entries of one instance into trees.
// Entries without a parent, or whose parent is not among menus, are roots.
// Siblings are ordered by position, then name. Entries caught in a parent
// loop are unreachable from any root and are left out.
func BuildMenuTree(menus []*domain.Menu) []*MenuNode {
	byID := make(map[uuid.UUID]*domain.Menu, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}

	var roots []*domain.Menu
	children := make(map[uuid.UUID][]*domain.Menu)
	for _, m := range menus {
		if m.ParentID == nil || byID[*m.ParentID] == nil {
			roots = append(roots, m)
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], m)
	}

	visited := make(map[uuid.UUID]bool)
	var build func(level []*domain.Menu) []*MenuNode
	build = func(level []*domain.Menu) []*MenuNode {
		sortMenus(level)
		var nodes []*MenuNode
		for _, m := range level {
			if visited[m.ID] {
				continue
			}
			visited[m.ID] = true
			nodes = append(nodes, &MenuNode{Menu: m, Children: build(children[m.ID])})
		}
		return nodes
	}
	return build(roots)
}

// MenuCreatesCycle reports whether making parentID the parent of childID
// would put childID under itself.
func MenuCreatesCycle(menus []*domain.Menu, childID, parentID uuid.UUID) bool {
	parents := make(map[uuid.UUID]*uuid.UUID, len(menus))
	for _, m := range menus {
		parents[m.ID] = m.ParentID
	}
	return closesLoop(parents, childID, parentID)
}

func sortMenus(menus []*domain.Menu) {
	sort.Slice(menus, func(i, j int) bool {
		if menus[i].Position != menus[j].Position {
			return menus[i].Position < menus[j].Position
		}
		return menus[i].Name < menus[j].Name
	})
}
