package overlap

import (
	"github.com/jteutenberg/seqcorrect/index"
	"github.com/jteutenberg/seqcorrect/util"
)

//The overlap package discovers prefix/suffix overlaps between a read and the
//rest of the indexed read set, and resolves them into a MultiOverlap: the
//read plus its neighbours laid out in root coordinates, ready for
//conflict-aware consensus.

//Block records every read overlapping the query at one overlap length and
//direction, as an interval in the index. Prefix blocks hold reads whose
//suffix matches the query's prefix; the rest hold reads whose prefix matches
//the query's suffix.
type Block struct {
	Length   int
	Interval index.Interval
	Prefix   bool
}

//Span is the number of overlapping reads the block represents
func (b Block) Span() int {
	return int(b.Interval.Size())
}

//Overlap places one overlapping read in root coordinates: Offset is the
//position of its first base relative to the root's first base.
type Overlap struct {
	Seq    string
	Offset int
}

type Overlapper struct {
	idx       *index.FMIndex
	errorRate float64
}

//maximum substitutions tolerated in a single overlap, regardless of length
const maxOverlapMismatches = 4

func NewOverlapper(idx *index.FMIndex, errorRate float64) *Overlapper {
	return &Overlapper{idx: idx, errorRate: errorRate}
}

//OverlapRead finds, for every overlap length from minOverlap up, the reads
//whose prefix matches the query's suffix and whose suffix matches the
//query's prefix, tolerating substitutions in proportion to the error rate.
//Patterns are anchored at read boundaries with the index sentinel.
func (o *Overlapper) OverlapRead(seq string, minOverlap int) []Block {
	n := len(seq)
	blocks := make([]Block, 0, 20)
	sentinel := string(index.Sentinel)
	for l := minOverlap; l < n; l++ {
		budget := int(float64(l)*o.errorRate + 0.5)
		if budget > maxOverlapMismatches {
			budget = maxOverlapMismatches
		}
		for _, iv := range o.searchInexact(sentinel+seq[n-l:], budget) {
			blocks = append(blocks, Block{Length: l, Interval: iv, Prefix: false})
		}
		for _, iv := range o.searchInexact(seq[:l]+sentinel, budget) {
			blocks = append(blocks, Block{Length: l, Interval: iv, Prefix: true})
		}
	}
	return blocks
}

type searchState struct {
	lower, upper int64
	i            int
	mismatches   int
}

var searchSymbols = [4]byte{'A', 'C', 'G', 'T'}

//searchInexact backward-searches for the pattern allowing up to budget base
//substitutions. Sentinel positions always match exactly. Each variant of the
//pattern occupies a disjoint interval, so the hits need no deduplication.
func (o *Overlapper) searchInexact(pattern string, budget int) []index.Interval {
	hits := make([]index.Interval, 0, 4)
	stack := make([]searchState, 0, 16)
	stack = append(stack, searchState{0, o.idx.Len() - 1, len(pattern) - 1, budget})
	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if st.i < 0 {
			hits = append(hits, index.Interval{Lower: st.lower, Upper: st.upper})
			continue
		}
		want := pattern[st.i]
		if want == index.Sentinel {
			if lo, hi, ok := o.step(index.Sentinel, st.lower, st.upper); ok {
				stack = append(stack, searchState{lo, hi, st.i - 1, st.mismatches})
			}
			continue
		}
		for _, c := range searchSymbols {
			mm := st.mismatches
			if c != want {
				if mm == 0 {
					continue
				}
				mm--
			}
			if lo, hi, ok := o.step(c, st.lower, st.upper); ok {
				stack = append(stack, searchState{lo, hi, st.i - 1, mm})
			}
		}
	}
	return hits
}

func (o *Overlapper) step(c byte, lower, upper int64) (int64, int64, bool) {
	offset := o.idx.RankOffset(c)
	lo := offset + o.idx.Occurrences(c, lower-1)
	hi := offset + o.idx.Occurrences(c, upper) - 1
	return lo, hi, lo <= hi
}

//BuildMultiOverlap resolves every block position to a read identity,
//extracts each overlapping read once, and lays them out in root coordinates.
//The root read itself is skipped.
func (o *Overlapper) BuildMultiOverlap(root string, rootID int, blocks []Block) *MultiOverlap {
	n := len(root)
	seen := util.NewIntSet()
	overlaps := make([]Overlap, 0, 20)
	for _, b := range blocks {
		for row := b.Interval.Lower; row <= b.Interval.Upper; row++ {
			var id int
			if b.Prefix {
				id = o.resolveRow(row)
			} else {
				//suffix patterns start with the sentinel, so the interval
				//rows already sit in the sentinel block
				id = o.idx.ResolvePosition(row)
			}
			if id == rootID || seen.Contains(uint(id)) {
				continue
			}
			seen.Add(uint(id))
			other := o.idx.ExtractString(id)
			if b.Prefix {
				overlaps = append(overlaps, Overlap{Seq: other, Offset: b.Length - len(other)})
			} else {
				overlaps = append(overlaps, Overlap{Seq: other, Offset: n - b.Length})
			}
		}
	}
	return NewMultiOverlap(root, overlaps)
}

//resolveRow walks backward from an index row to the start of the read
//containing it
func (o *Overlapper) resolveRow(row int64) int {
	for {
		b := o.idx.Char(row)
		row = o.idx.RankOffset(b) + o.idx.Occurrences(b, row-1)
		if b == index.Sentinel {
			return o.idx.ResolvePosition(row)
		}
	}
}

//MultiOverlap is a root sequence plus its overlapping reads in root
//coordinates
type MultiOverlap struct {
	root     string
	overlaps []Overlap
}

func NewMultiOverlap(root string, overlaps []Overlap) *MultiOverlap {
	return &MultiOverlap{root: root, overlaps: overlaps}
}

func (mo *MultiOverlap) NumOverlaps() int {
	return len(mo.overlaps)
}

//UpdateRootSeq re-roots the layout on a new sequence of the same length
func (mo *MultiOverlap) UpdateRootSeq(seq string) {
	mo.root = seq
}

//CountOverlaps counts the overlaps covering the first and last root base
func (mo *MultiOverlap) CountOverlaps() (int, int) {
	prefix := 0
	suffix := 0
	for _, ov := range mo.overlaps {
		if ov.Offset <= 0 && ov.Offset+len(ov.Seq) > 0 {
			prefix++
		}
		if ov.Offset <= len(mo.root)-1 && ov.Offset+len(ov.Seq) >= len(mo.root) {
			suffix++
		}
	}
	return prefix, suffix
}

func (mo *MultiOverlap) baseAt(ov Overlap, i int) byte {
	j := i - ov.Offset
	if j < 0 || j >= len(ov.Seq) {
		return 0
	}
	return ov.Seq[j]
}

var baseSymbols = [4]byte{'A', 'C', 'G', 'T'}

func baseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	}
	return 3
}

//ConsensusConflict votes column by column. The root base is kept whenever
//two distinct bases both reach the cutoff (a conflicted column), and is
//replaced only when an alternative holds a strict majority and the root's
//own support looks like sequencing error at the column's depth.
func (mo *MultiOverlap) ConsensusConflict(errorRate float64, cutoff int) string {
	out := make([]byte, len(mo.root), len(mo.root))
	for i := 0; i < len(mo.root); i++ {
		var counts [4]int
		depth := 1 //the root votes too
		rb := baseIndex(mo.root[i])
		counts[rb]++
		for _, ov := range mo.overlaps {
			if b := mo.baseAt(ov, i); b != 0 {
				counts[baseIndex(b)]++
				depth++
			}
		}
		best := rb
		plausible := 0
		for v := 0; v < 4; v++ {
			if counts[v] > counts[best] {
				best = v
			}
			if counts[v] >= cutoff {
				plausible++
			}
		}
		out[i] = mo.root[i]
		if best != rb && plausible < 2 {
			maxRootSupport := int(errorRate*float64(depth)*3.0) + 1
			if counts[rb] <= maxRootSupport {
				out[i] = baseSymbols[best]
			}
		}
	}
	return string(out)
}

//QCCheck passes when every root base is supported by at least one agreeing
//overlapping read
func (mo *MultiOverlap) QCCheck() bool {
	if len(mo.overlaps) == 0 {
		return false
	}
	for i := 0; i < len(mo.root); i++ {
		supported := false
		for _, ov := range mo.overlaps {
			if mo.baseAt(ov, i) == mo.root[i] {
				supported = true
				break
			}
		}
		if !supported {
			return false
		}
	}
	return true
}
