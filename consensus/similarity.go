package consensus

// Ratio returns the similarity of a and b as 2*M/T, where M is the length
// of their longest common subsequence and T the sum of their lengths, all
// counted in runes. Two empty strings are identical (1.0).
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcs(ra, rb)) / float64(total)
}

func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// scoreEpsilon absorbs float rounding when comparing summed ratios.
const scoreEpsilon = 1e-9

func better(score, best float64) bool {
	return score > best+scoreEpsilon
}

// Select picks the candidate most similar to all the others: the one with
// the highest sum of Ratio against every other candidate. Ties go to the
// earliest candidate. An empty slice yields "" and false.
func Select(candidates []string) (string, bool) {
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	}

	best, bestScore := 0, -1.0
	for i, c := range candidates {
		var score float64
		for j, o := range candidates {
			if i != j {
				score += Ratio(c, o)
			}
		}
		if better(score, bestScore) {
			best, bestScore = i, score
		}
	}
	return candidates[best], true
}
