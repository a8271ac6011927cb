package jobstore

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxExpandedIDs bounds the number of ids one tasklist may expand to.
const MaxExpandedIDs = 1 << 20

// ExpandIDs parses a tasklist such as "18-22:1,26,29,34-49:3" into ids.
// Blocks are comma separated; each is a single id or an inclusive
// first-last range with an optional :step.
func ExpandIDs(tasklist string) ([]int, error) {
	var ids []int
	for _, block := range strings.Split(tasklist, ",") {
		block = strings.TrimSpace(block)
		if block == "" {
			return nil, fmt.Errorf("tasklist %q: empty block", tasklist)
		}
		step := 1
		if rng, s, ok := strings.Cut(block, ":"); ok {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("tasklist block %q: step must be a positive integer", block)
			}
			block, step = rng, n
		}
		first, last, err := parseRange(block)
		if err != nil {
			return nil, err
		}
		if first > last {
			continue
		}
		if n := (last-first)/step + 1; n > MaxExpandedIDs-len(ids) {
			return nil, fmt.Errorf("tasklist %q: expands to more than %d ids", tasklist, MaxExpandedIDs)
		}
		for id := first; ; id += step {
			ids = append(ids, id)
			if last-id < step {
				break
			}
		}
	}
	return ids, nil
}

func parseRange(block string) (int, int, error) {
	lo, hi, isRange := strings.Cut(block, "-")
	first, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("tasklist block %q: %q is not an id", block, lo)
	}
	if !isRange {
		return first, first, nil
	}
	last, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("tasklist block %q: %q is not an id", block, hi)
	}
	return first, last, nil
}

// CondenseIDs is the inverse of ExpandIDs for unit steps: runs of
// consecutive ids collapse into first-last ranges. Order is preserved.
func CondenseIDs(ids []int) string {
	var blocks []string
	for i := 0; i < len(ids); {
		j := i
		for j+1 < len(ids) && ids[j+1] == ids[j]+1 {
			j++
		}
		if i == j {
			blocks = append(blocks, strconv.Itoa(ids[i]))
		} else {
			blocks = append(blocks, fmt.Sprintf("%d-%d", ids[i], ids[j]))
		}
		i = j + 1
	}
	return strings.Join(blocks, ",")
}
