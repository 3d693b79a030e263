package align

//The align package provides the two pairwise overlap alignment strategies
//used during correction: a full dynamic-programming overlap alignment with
//free end gaps, and a banded alignment anchored on a shared kmer for the
//common case where the kmer places the two reads on a single diagonal.

const (
	matchScore    = 2
	mismatchScore = -4
	gapScore      = -4
	negInf        = -(1 << 30)
)

//Alignment describes an overlap between two sequences. Coordinates are
//half-open. The cigar holds one op per column: 'M' consumes both sequences,
//'D' consumes only the first, 'I' consumes only the second.
type Alignment struct {
	Start1, End1 int
	Start2, End2 int
	Cigar        []byte
	Matches      int
}

//OverlapLength is the total number of aligned columns
func (a *Alignment) OverlapLength() int {
	return len(a.Cigar)
}

//PercentIdentity is the proportion of columns with matching bases, in [0,100]
func (a *Alignment) PercentIdentity() float64 {
	if len(a.Cigar) == 0 {
		return 0
	}
	return 100 * float64(a.Matches) / float64(len(a.Cigar))
}

//Project maps the second sequence of the alignment onto the coordinates of
//the first, producing one byte per base of the first sequence: the aligned
//base, '-' for a deletion, or 0 where the alignment does not reach.
//Insertions in the second sequence are dropped.
func (a *Alignment) Project(other string, baseLen int) []byte {
	out := make([]byte, baseLen, baseLen)
	i := a.Start1
	j := a.Start2
	for _, op := range a.Cigar {
		switch op {
		case 'M':
			out[i] = other[j]
			i++
			j++
		case 'D':
			out[i] = '-'
			i++
		case 'I':
			j++
		}
	}
	return out
}

func score(x, y byte) int {
	if x == y {
		return matchScore
	}
	return mismatchScore
}

//ComputeOverlap aligns two sequences end to end with free gaps at both ends,
//finding the best overlap without any prior assumption about its position.
//This is the slow path, used when a shared kmer cannot anchor the overlap.
func ComputeOverlap(seqA, seqB string) *Alignment {
	la := len(seqA)
	lb := len(seqB)
	s := makeMatrix(la+1, lb+1)
	//free leading gaps
	for i := 0; i <= la; i++ {
		s[i][0] = 0
	}
	for j := 0; j <= lb; j++ {
		s[0][j] = 0
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			v := s[i-1][j-1] + score(seqA[i-1], seqB[j-1])
			if up := s[i-1][j] + gapScore; up > v {
				v = up
			}
			if left := s[i][j-1] + gapScore; left > v {
				v = left
			}
			s[i][j] = v
		}
	}
	//free trailing gaps: best cell on the last row or column
	bi, bj := la, lb
	best := s[la][lb]
	for i := 0; i <= la; i++ {
		if s[i][lb] > best {
			best = s[i][lb]
			bi, bj = i, lb
		}
	}
	for j := 0; j <= lb; j++ {
		if s[la][j] > best {
			best = s[la][j]
			bi, bj = la, j
		}
	}
	return traceback(s, seqA, seqB, bi, bj, 0, 0, func(i, j int) bool {
		return i == 0 || j == 0
	})
}

//ExtendMatch aligns two sequences under the assumption that they match on
//the diagonal through (posA, posB), searching only a band around it. The
//overlap region starts where that diagonal meets a sequence start.
func ExtendMatch(seqA, seqB string, posA, posB, band int) *Alignment {
	m := posA
	if posB < m {
		m = posB
	}
	startA := posA - m
	startB := posB - m
	subA := seqA[startA:]
	subB := seqB[startB:]
	la := len(subA)
	lb := len(subB)
	s := makeMatrix(la+1, lb+1)
	s[0][0] = 0
	for j := 1; j <= band && j <= lb; j++ {
		s[0][j] = j * gapScore
	}
	for i := 1; i <= band && i <= la; i++ {
		s[i][0] = i * gapScore
	}
	for i := 1; i <= la; i++ {
		lo := i - band
		if lo < 1 {
			lo = 1
		}
		hi := i + band
		if hi > lb {
			hi = lb
		}
		for j := lo; j <= hi; j++ {
			v := s[i-1][j-1] + score(subA[i-1], subB[j-1])
			if up := s[i-1][j] + gapScore; up > v {
				v = up
			}
			if left := s[i][j-1] + gapScore; left > v {
				v = left
			}
			s[i][j] = v
		}
	}
	//the overlap ends where either sequence runs out, within the band
	bi, bj := -1, -1
	best := negInf
	for j := 0; j <= lb; j++ {
		if s[la][j] > best {
			best = s[la][j]
			bi, bj = la, j
		}
	}
	for i := 0; i <= la; i++ {
		if s[i][lb] > best {
			best = s[i][lb]
			bi, bj = i, lb
		}
	}
	a := traceback(s, subA, subB, bi, bj, 0, 0, func(i, j int) bool {
		return i == 0 && j == 0
	})
	a.Start1 += startA
	a.End1 += startA
	a.Start2 += startB
	a.End2 += startB
	return a
}

func makeMatrix(rows, cols int) [][]int {
	s := make([][]int, rows, rows)
	backing := make([]int, rows*cols, rows*cols)
	for i := range backing {
		backing[i] = negInf
	}
	for i := range s {
		s[i] = backing[i*cols : (i+1)*cols]
	}
	return s
}

func traceback(s [][]int, seqA, seqB string, bi, bj, offA, offB int, done func(int, int) bool) *Alignment {
	cigar := make([]byte, 0, bi+bj)
	matches := 0
	i, j := bi, bj
	for !done(i, j) {
		if i > 0 && j > 0 && s[i][j] == s[i-1][j-1]+score(seqA[i-1], seqB[j-1]) {
			cigar = append(cigar, 'M')
			if seqA[i-1] == seqB[j-1] {
				matches++
			}
			i--
			j--
		} else if i > 0 && s[i-1][j] != negInf && s[i][j] == s[i-1][j]+gapScore {
			cigar = append(cigar, 'D')
			i--
		} else if j > 0 && s[i][j-1] != negInf && s[i][j] == s[i][j-1]+gapScore {
			cigar = append(cigar, 'I')
			j--
		} else {
			break
		}
	}
	//the walk built the cigar back to front
	for x, y := 0, len(cigar)-1; x < y; x, y = x+1, y-1 {
		cigar[x], cigar[y] = cigar[y], cigar[x]
	}
	return &Alignment{
		Start1:  i + offA,
		End1:    bi + offA,
		Start2:  j + offB,
		End2:    bj + offB,
		Cigar:   cigar,
		Matches: matches,
	}
}
