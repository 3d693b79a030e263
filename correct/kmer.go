package correct

//kmer spectrum correction: a base is solid when some kmer window covering it
//occurs often enough in the read set, with "often enough" set by the lowest
//base quality in the window. Non-solid bases are rewritten one at a time
//until all are solid or no further progress can be made.

var correctionBases = [4]byte{'A', 'C', 'G', 'T'}

func (c *Corrector) kmerCorrection(item WorkItem) Result {
	result := Result{Sequence: item.Seq.String()}
	k := c.params.KmerLength
	n := len(result.Sequence)
	if n < k {
		return result
	}
	numWindows := n - k + 1

	//the lowest quality within each window, always from the original read
	minPhred := make([]int, numWindows, numWindows)
	for i := 0; i < numWindows; i++ {
		m := item.Seq.PhredAt(i)
		for j := i + 1; j < i+k; j++ {
			if q := item.Seq.PhredAt(j); q < m {
				m = q
			}
		}
		minPhred[i] = m
	}

	counts := make(map[string]int)
	lookup := func(kmer string) int {
		if count, ok := counts[kmer]; ok {
			return count
		}
		count := c.params.Index.CountOccurrences(kmer)
		counts[kmer] = count
		return count
	}

	seq := []byte(result.Sequence)
	countVector := make([]int, numWindows, numWindows)
	//mark every base covered by a sufficiently supported window
	evaluate := func() []bool {
		solid := make([]bool, n, n)
		for i := 0; i < numWindows; i++ {
			countVector[i] = lookup(string(seq[i : i+k]))
			if countVector[i] >= c.params.Thresholds.RequiredSupport(minPhred[i]) {
				for j := i; j < i+k; j++ {
					solid[j] = true
				}
			}
		}
		return solid
	}
	//one evaluation beyond the round count so a correction made in the last
	//round still gets its solidity check
	for round := 0; round <= c.params.NumKmerRounds; round++ {
		solid := evaluate()
		allSolid := true
		for i := 0; i < n; i++ {
			if !solid[i] {
				allSolid = false
				break
			}
		}
		if allSolid {
			result.Sequence = string(seq)
			result.KmerQC = true
			return result
		}
		if round == c.params.NumKmerRounds {
			break
		}
		corrected := false
		for i := 0; i < n && !corrected; i++ {
			if solid[i] {
				continue
			}
			//try the leftmost window covering this base, then the rightmost;
			//the attempt threshold follows the quality of the base itself
			left := i + 1 - k
			if left < 0 {
				left = 0
			}
			right := i
			if right > numWindows-1 {
				right = numWindows - 1
			}
			support := c.params.Thresholds.RequiredSupport(item.Seq.PhredAt(i))
			corrected = attemptKmerCorrection(seq, i, left, k,
				max(countVector[left], support), lookup)
			if !corrected && right != left {
				corrected = attemptKmerCorrection(seq, i, right, k,
					max(countVector[right], support), lookup)
			}
		}
		if !corrected {
			break
		}
	}
	result.Sequence = string(seq)
	return result
}

//attemptKmerCorrection tries every alternative base at position i, scoring
//each by the occurrence count of the window at kIdx. The best alternative is
//applied only if it reaches minCount and no other alternative ties it.
func attemptKmerCorrection(seq []byte, i, kIdx, k, minCount int, lookup func(string) int) bool {
	original := seq[i]
	bestCount := 0
	bestBase := byte(0)
	ambiguous := false
	for _, b := range correctionBases {
		if b == original {
			continue
		}
		seq[i] = b
		count := lookup(string(seq[kIdx : kIdx+k]))
		if count > bestCount {
			bestCount = count
			bestBase = b
			ambiguous = false
		} else if count == bestCount && count > 0 {
			ambiguous = true
		}
	}
	if bestCount >= minCount && !ambiguous {
		seq[i] = bestBase
		return true
	}
	seq[i] = original
	return false
}
