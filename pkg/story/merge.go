package story

// MergeEvents flattens event sets in load order. When an id is defined more
// than once the last definition wins and takes the position of that last
// definition. The ids that were overridden are returned for diagnostics.
// Events without an id are kept as-is.
func MergeEvents(sets ...[]Event) ([]Event, []string) {
	var all []Event
	for _, set := range sets {
		all = append(all, set...)
	}

	last := make(map[string]int, len(all))
	for i, ev := range all {
		if ev.ID == "" {
			continue
		}
		last[ev.ID] = i
	}

	merged := make([]Event, 0, len(all))
	var overridden []string
	reported := make(map[string]bool)
	for i, ev := range all {
		if ev.ID != "" && last[ev.ID] != i {
			if !reported[ev.ID] {
				overridden = append(overridden, ev.ID)
				reported[ev.ID] = true
			}
			continue
		}
		merged = append(merged, ev)
	}
	return merged, overridden
}
