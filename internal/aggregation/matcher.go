package aggregation

import (
	"sort"
	"strings"

	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/events"
)

// MatchFilter finds the charge filter an event belongs to. Candidates
// must match on every dimension: a concrete value list matches when
// the event's value is listed, the AllValues wildcard matches any
// present value. The most specific matching filter wins; ties resolve
// by filter definition order.
//
// A nil return means no filter matched and the event belongs to the
// charge's default (ignored when filters fully partition the charge).
func MatchFilter(event *events.Event, filters []charge.Filter) *charge.Filter {
	var best *charge.Filter
	bestScore := -1

	for i := range filters {
		f := &filters[i]
		if !filterMatches(event, f) {
			continue
		}
		if score := f.Specificity(); score > bestScore {
			best = f
			bestScore = score
		}
	}

	return best
}

func filterMatches(event *events.Event, f *charge.Filter) bool {
	for key, values := range f.Values {
		actual, ok := event.StringProperty(key)
		if !ok {
			return false
		}

		matched := false
		for _, v := range values {
			if v == charge.AllValues || v == actual {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// PartitionByFilter splits events into per-filter sets before
// aggregation. Events matching no filter land under the empty key.
func PartitionByFilter(evts []*events.Event, filters []charge.Filter) map[string][]*events.Event {
	partitions := make(map[string][]*events.Event)
	for _, event := range evts {
		key := ""
		if f := MatchFilter(event, filters); f != nil {
			key = f.ID
		}
		partitions[key] = append(partitions[key], event)
	}
	return partitions
}

// CatchAllGroup is the bucket for events missing a grouped_by key
const CatchAllGroup = "__MISSING__"

// GroupKey canonically serializes a grouped_by value combination so
// the same combination always yields the same fee lookup key.
func GroupKey(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+values[k])
	}
	return strings.Join(parts, ",")
}

// PartitionByGroup repeats aggregation input per distinct combination
// of the grouped_by keys observed in events, including a catch-all
// combination for events missing a key.
func PartitionByGroup(evts []*events.Event, groupedBy []string) map[string][]*events.Event {
	if len(groupedBy) == 0 {
		return map[string][]*events.Event{"": evts}
	}

	partitions := make(map[string][]*events.Event)
	for _, event := range evts {
		values := make(map[string]string, len(groupedBy))
		for _, key := range groupedBy {
			if v, ok := event.StringProperty(key); ok {
				values[key] = v
			} else {
				values[key] = CatchAllGroup
			}
		}
		groupKey := GroupKey(values)
		partitions[groupKey] = append(partitions[groupKey], event)
	}
	return partitions
}
