package department

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

// Order returns departments so that every parent present in the input precedes its
// children. A parent outside the input makes the department a root; its reference is
// kept as-is. Roots of disjoint trees keep input order. Input must be deduplicated.
func Order(departments []Department) ([]Department, error) {
	index := make(map[string]int, len(departments))
	for i, d := range departments {
		if _, ok := index[d.ExternalID]; !ok {
			index[d.ExternalID] = i
		}
	}

	state := make(map[string]visitState, len(departments))
	out := make([]Department, 0, len(departments))
	var stack []string

	for _, start := range departments {
		if state[start.ExternalID] == done {
			continue
		}
		stack = append(stack[:0], start.ExternalID)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			d := departments[index[id]]
			switch state[id] {
			case unvisited:
				state[id] = visiting
				if _, inBatch := index[d.ParentExternalID]; inBatch && d.ParentExternalID != "" {
					switch state[d.ParentExternalID] {
					case visiting:
						parent := departments[index[d.ParentExternalID]]
						return nil, &CycleError{ExternalID: parent.ExternalID, DisplayName: parent.DisplayName}
					case unvisited:
						stack = append(stack, d.ParentExternalID)
					}
				}
			case visiting:
				state[id] = done
				out = append(out, d)
				stack = stack[:len(stack)-1]
			case done:
				stack = stack[:len(stack)-1]
			}
		}
	}
	return out, nil
}
