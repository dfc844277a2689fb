package browse

import (
	"sort"
	"strings"

	"github.com/vanderheijden86/warren/pkg/model"
)

// Searcher exposes the debounced search controller for this browser.
func (b *Browser) Searcher() *SearchController { return b.search }

// ExecuteSearch runs one filter pass over accumulated knowledge: cached
// children of every fetched parent plus the accumulated leaves of every
// scan session. It never triggers a network fetch; unexpanded containers
// simply do not participate. Matches are grouped by originating container
// and ordered by container key.
func (b *Browser) ExecuteSearch(query string) SearchResult {
	res := SearchResult{Query: query}
	if strings.TrimSpace(query) == "" {
		return res
	}

	groups := make(map[string]*SearchGroup)
	add := func(parentKey string, n model.Node) {
		g, ok := groups[parentKey]
		if !ok {
			name := parentKey
			if p, found := b.nodes[parentKey]; found {
				name = p.DisplayName
			}
			g = &SearchGroup{ContainerKey: parentKey, ContainerName: name}
			groups[parentKey] = g
		}
		g.Matches = append(g.Matches, n)
	}

	for key, n := range b.nodes {
		if !n.Kind.CanHaveChildren() {
			continue
		}
		children, ok := b.cache.Children(key)
		if !ok {
			continue
		}
		for _, c := range children {
			if matchName(c.DisplayName, query) {
				add(key, c)
			}
		}
	}

	for key, s := range b.sessions {
		for _, d := range s.Accumulated() {
			if matchName(d.Name, query) {
				add(key, model.LeafNode(s.ConnID, s.ContainerID, d))
			}
		}
	}

	res.Groups = make([]SearchGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Matches, func(i, j int) bool {
			return g.Matches[i].Key < g.Matches[j].Key
		})
		res.Groups = append(res.Groups, *g)
	}
	sort.Slice(res.Groups, func(i, j int) bool {
		return res.Groups[i].ContainerKey < res.Groups[j].ContainerKey
	})
	return res
}
