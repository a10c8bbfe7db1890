package kwbind

// nearestName returns the candidate closest to name by edit distance after
// normalization, or "" when nothing is within half the name's length.
func nearestName(name string, candidates []string) string {
	x := NormalizeName(name)
	var best string
	bestD := (len(x) + 1) / 2
	for _, c := range candidates {
		d := levenshtein(x, NormalizeName(c), bestD)
		if d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}

// levenshtein returns the edit distance between x and y. It may stop early
// with an approximate result once the distance exceeds limit.
func levenshtein(x, y string, limit int) int {
	if len(x) > len(y) {
		x, y = y, x
	}
	for len(x) > 0 && x[0] == y[0] {
		x, y = x[1:], y[1:]
	}
	if x == "" {
		return len(y)
	}

	row := make([]int, len(y)+1)
	for i := range row {
		row[i] = i
	}
	for i := 1; i <= len(x); i++ {
		row[0] = i
		best := i
		prev := i - 1
		for j := 1; j <= len(y); j++ {
			sub := prev
			if x[i-1] != y[j-1] {
				sub++
			}
			k := min(sub, 1+row[j-1], 1+row[j])
			prev, row[j] = row[j], k
			best = min(best, k)
		}
		if best > limit {
			return best
		}
	}
	return row[len(y)]
}
