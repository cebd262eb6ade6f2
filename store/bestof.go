package store

import "github.com/teranos/classdb/prediction"

type itemCriterion struct {
	item      string
	criterion string
}

// BestOf keeps the first record of every (item, criterion) group.
// records must already be sorted by descending score, so the first record
// of a group is its best; groups keep the order of their first appearance.
func BestOf(records []prediction.Record) []prediction.Record {
	seen := make(map[itemCriterion]struct{}, len(records))
	best := make([]prediction.Record, 0, len(records))
	for _, r := range records {
		k := itemCriterion{item: r.Item, criterion: r.Criterion}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		best = append(best, r)
	}
	return best
}
