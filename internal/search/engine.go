package search

import (
	"sort"

	"github.com/ignitero/ignitero/internal/catalog"
)

// MaxResults caps every ranked result list.
const MaxResults = 20

// Engine ranks launchable items against a raw query string. It holds no
// mutable state and is safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

type scored[T any] struct {
	score int
	item  T
}

// rank sorts matches by score descending. Equal scores order by the key
// ascending and then by the id field, so results are fully deterministic
// regardless of input order.
func rank[T any](results []scored[T], key func(T) string, id func(T) string) []T {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		ki, kj := key(results[i].item), key(results[j].item)
		if ki != kj {
			return ki < kj
		}
		return id(results[i].item) < id(results[j].item)
	})

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}

	items := make([]T, len(results))
	for i, r := range results {
		items[i] = r.item
	}
	return items
}

// SearchApps ranks apps against the query. An app matches when the query is
// a fuzzy subsequence of its display name or its original (non-localized)
// name; the better of the two scores ranks it. An empty query returns no
// results. The result is never nil, so it always encodes as a JSON array.
func (e *Engine) SearchApps(apps []catalog.AppItem, query string) []catalog.AppItem {
	if query == "" {
		return []catalog.AppItem{}
	}

	needle := Normalize(query)

	var results []scored[catalog.AppItem]
	for _, app := range apps {
		score, ok := Score(Normalize(app.Name), needle)

		if app.OriginalName != "" {
			if origScore, origOK := Score(Normalize(app.OriginalName), needle); origOK {
				if !ok || origScore > score {
					score = origScore
				}
				ok = true
			}
		}

		if ok {
			results = append(results, scored[catalog.AppItem]{score: score, item: app})
		}
	}

	return rank(results,
		func(a catalog.AppItem) string { return a.Name },
		func(a catalog.AppItem) string { return a.Path })
}

// SearchDirectories ranks directories against the query by name.
func (e *Engine) SearchDirectories(dirs []catalog.DirectoryItem, query string) []catalog.DirectoryItem {
	if query == "" {
		return []catalog.DirectoryItem{}
	}

	needle := Normalize(query)

	var results []scored[catalog.DirectoryItem]
	for _, dir := range dirs {
		if score, ok := Score(Normalize(dir.Name), needle); ok {
			results = append(results, scored[catalog.DirectoryItem]{score: score, item: dir})
		}
	}

	return rank(results,
		func(d catalog.DirectoryItem) string { return d.Name },
		func(d catalog.DirectoryItem) string { return d.Path })
}

// SearchCommands ranks custom commands against the query by alias.
func (e *Engine) SearchCommands(commands []catalog.CommandItem, query string) []catalog.CommandItem {
	if query == "" {
		return []catalog.CommandItem{}
	}

	needle := Normalize(query)

	var results []scored[catalog.CommandItem]
	for _, cmd := range commands {
		if score, ok := Score(Normalize(cmd.Alias), needle); ok {
			results = append(results, scored[catalog.CommandItem]{score: score, item: cmd})
		}
	}

	return rank(results,
		func(c catalog.CommandItem) string { return c.Alias },
		func(c catalog.CommandItem) string { return c.Command })
}
