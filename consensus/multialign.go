package consensus

import (
	"github.com/jteutenberg/seqcorrect/align"
)

//The consensus package accumulates overlapping sequences aligned against a
//base sequence and resolves them into a single sequence by column voting.
//Each overlap is projected onto base coordinates as it is added, so the
//consensus walk is a single pass over the base.

type MultipleAlignment struct {
	base string
	rows [][]byte //projections onto base coordinates, see align.Alignment.Project
}

func NewMultipleAlignment() *MultipleAlignment {
	return &MultipleAlignment{rows: make([][]byte, 0, 20)}
}

//AddBase sets the sequence all further overlaps are aligned against
func (ma *MultipleAlignment) AddBase(seq string) {
	ma.base = seq
}

//AddOverlap folds an aligned sequence into the multiple alignment
func (ma *MultipleAlignment) AddOverlap(seq string, a *align.Alignment) {
	ma.rows = append(ma.rows, a.Project(seq, len(ma.base)))
}

func (ma *MultipleAlignment) NumRows() int {
	return len(ma.rows)
}

//BaseConsensus resolves the alignment column by column. A column with fewer
//than minSupport aligned rows keeps the base's own character. Otherwise the
//majority symbol wins, with ties broken in favour of the base; a gap
//majority deletes the base position. Output is capped at maxWidth columns.
func (ma *MultipleAlignment) BaseConsensus(maxWidth, minSupport int) string {
	out := make([]byte, 0, len(ma.base))
	for i := 0; i < len(ma.base) && len(out) < maxWidth; i++ {
		depth := 0
		var counts [5]int //A C G T -
		for _, row := range ma.rows {
			if row[i] != 0 {
				depth++
				counts[voteIndex(row[i])]++
			}
		}
		b := ma.base[i]
		if depth < minSupport {
			out = append(out, b)
			continue
		}
		//the base sequence gets a vote of its own
		counts[voteIndex(b)]++
		best := voteIndex(b)
		for v := 0; v < len(counts); v++ {
			if counts[v] > counts[best] {
				best = v
			}
		}
		if best == 4 { //gap majority
			continue
		}
		out = append(out, voteSymbols[best])
	}
	return string(out)
}

var voteSymbols = [5]byte{'A', 'C', 'G', 'T', '-'}

func voteIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return 4
}
