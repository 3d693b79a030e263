package index

import (
	"sort"

	"github.com/jteutenberg/seqcorrect/sequence"
	"github.com/jteutenberg/seqcorrect/util"
	"github.com/pkg/errors"
)

//The index package holds the compressed full-text index over the read set.
//Reads are concatenated with sentinel separators and stored as a multi-string
//BWT with a checkpointed occurrence table. The suffix array only exists
//during construction; queries run on the BWT alone.

var log = util.GetLogger("index")

//Sentinel terminates each read in the indexed text
const Sentinel = byte('$')

const occSampleRate = 128

//alphabet order: $ < A < C < G < T
const numSymbols = 5

var symbolRank = buildSymbolRanks()

func buildSymbolRanks() [256]int8 {
	var ranks [256]int8
	for i := range ranks {
		ranks[i] = -1
	}
	ranks[Sentinel] = 0
	ranks['A'] = 1
	ranks['C'] = 2
	ranks['G'] = 3
	ranks['T'] = 4
	return ranks
}

//Interval is a range of rows in the index matching some pattern. An
//interval with Upper < Lower matches nothing and is invalid.
type Interval struct {
	Lower int64
	Upper int64
}

func (iv Interval) Valid() bool {
	return iv.Lower >= 0 && iv.Lower <= iv.Upper
}

func (iv Interval) Size() int64 {
	if !iv.Valid() {
		return 0
	}
	return iv.Upper - iv.Lower + 1
}

var invalidInterval = Interval{0, -1}

type FMIndex struct {
	bwt         []byte
	counts      [numSymbols]int64 //number of text symbols ranking below each symbol
	occ         [][numSymbols]int64
	numReads    int
	lexoRank    []int   //sentinel occurrence rank (BWT order) -> read id
	sentinelRow []int64 //read id -> row of the suffix starting at its sentinel
}

//Build indexes a set of reads. Reads must be non-empty and contain only
//ACGT bases.
func Build(reads []string) (*FMIndex, error) {
	if len(reads) == 0 {
		return nil, errors.New("no reads to index")
	}
	size := 1
	for _, r := range reads {
		if len(r) == 0 {
			return nil, errors.New("cannot index an empty read")
		}
		size += len(r) + 1
	}
	//a leading sentinel makes every read, including the first, reachable by
	//sentinel-anchored patterns
	text := make([]byte, 0, size)
	sentinelPos := make([]int, 0, len(reads)+1)
	text = append(text, Sentinel)
	sentinelPos = append(sentinelPos, 0)
	for _, r := range reads {
		text = append(text, r...)
		sentinelPos = append(sentinelPos, len(text))
		text = append(text, Sentinel)
	}
	for _, b := range text {
		if symbolRank[b] < 0 {
			return nil, errors.Errorf("invalid symbol %q in read set", b)
		}
	}

	sa := buildSuffixArray(text)
	n := len(text)
	f := FMIndex{
		bwt:         make([]byte, n, n),
		numReads:    len(reads),
		lexoRank:    make([]int, len(reads)+1, len(reads)+1),
		sentinelRow: make([]int64, len(reads), len(reads)),
	}
	for row, p := range sa {
		if p == 0 {
			f.bwt[row] = text[n-1]
		} else {
			f.bwt[row] = text[p-1]
		}
		if text[p] == Sentinel {
			//sentinel j ends read j-1; the leading sentinel ends nothing
			if j := readOfSentinel(sentinelPos, p); j > 0 {
				f.sentinelRow[j-1] = int64(row)
			}
		}
	}
	//symbol counts, then convert to starting offsets
	var counts [numSymbols]int64
	for _, b := range f.bwt {
		counts[symbolRank[b]]++
	}
	total := int64(0)
	for i := 0; i < numSymbols; i++ {
		f.counts[i] = total
		total += counts[i]
	}
	//occurrence checkpoints and the sentinel rank table
	f.occ = make([][numSymbols]int64, (n-1)/occSampleRate+1, (n-1)/occSampleRate+1)
	var running [numSymbols]int64
	sentinels := 0
	for row, b := range f.bwt {
		if row%occSampleRate == 0 {
			f.occ[row/occSampleRate] = running
		}
		if b == Sentinel {
			p := sa[row] - 1
			if p < 0 {
				p = n - 1
			}
			//the rank resolves to the read following the sentinel: a
			//backward walk stepping through it has just left that read
			f.lexoRank[sentinels] = readOfSentinel(sentinelPos, p)
			sentinels++
		}
		running[symbolRank[b]]++
	}
	log.Debugf("indexed %d reads, %d symbols", len(reads), n)
	return &f, nil
}

//BuildFromSequences indexes the base strings of a set of sequences
func BuildFromSequences(seqs []sequence.Sequence) (*FMIndex, error) {
	reads := make([]string, len(seqs), len(seqs))
	for i, s := range seqs {
		reads[i] = s.String()
	}
	return Build(reads)
}

func readOfSentinel(sentinelPos []int, p int) int {
	i := sort.SearchInts(sentinelPos, p)
	return i
}

//buildSuffixArray sorts suffixes by prefix doubling. The array is discarded
//once the BWT and lookup tables are built.
func buildSuffixArray(text []byte) []int {
	n := len(text)
	sa := make([]int, n, n)
	rank := make([]int, n, n)
	tmp := make([]int, n, n)
	for i := 0; i < n; i++ {
		sa[i] = i
		rank[i] = int(symbolRank[text[i]])
	}
	for k := 1; ; k *= 2 {
		cmp := func(a, b int) bool {
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			ra, rb := -1, -1
			if a+k < n {
				ra = rank[a+k]
			}
			if b+k < n {
				rb = rank[b+k]
			}
			return ra < rb
		}
		sort.Slice(sa, func(i, j int) bool { return cmp(sa[i], sa[j]) })
		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			if cmp(sa[i-1], sa[i]) {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)
		if rank[sa[n-1]] == n-1 {
			break
		}
	}
	return sa
}

func (f *FMIndex) NumReads() int {
	return f.numReads
}

func (f *FMIndex) Len() int64 {
	return int64(len(f.bwt))
}

//Char gives the BWT symbol at a row
func (f *FMIndex) Char(row int64) byte {
	return f.bwt[row]
}

//RankOffset gives the number of text symbols ranking below b
func (f *FMIndex) RankOffset(b byte) int64 {
	return f.counts[symbolRank[b]]
}

//Occurrences counts occurrences of b in the BWT rows [0,row]
func (f *FMIndex) Occurrences(b byte, row int64) int64 {
	if row < 0 {
		return 0
	}
	r := symbolRank[b]
	//occ[cp] covers the rows before the checkpoint; scan the remainder
	cp := row / occSampleRate
	count := f.occ[cp][r]
	for p := cp * occSampleRate; p <= row; p++ {
		if f.bwt[p] == b {
			count++
		}
	}
	return count
}

//FindInterval backward-searches for an exact match of the pattern, which
//may include the sentinel to anchor at read boundaries
func (f *FMIndex) FindInterval(pattern string) Interval {
	if len(pattern) == 0 {
		return invalidInterval
	}
	lower := int64(0)
	upper := int64(len(f.bwt) - 1)
	for i := len(pattern) - 1; i >= 0; i-- {
		b := pattern[i]
		if symbolRank[b] < 0 {
			return invalidInterval
		}
		offset := f.counts[symbolRank[b]]
		lower = offset + f.Occurrences(b, lower-1)
		upper = offset + f.Occurrences(b, upper) - 1
		if lower > upper {
			return invalidInterval
		}
	}
	return Interval{lower, upper}
}

//CountOccurrences counts exact matches of the kmer over both strands
func (f *FMIndex) CountOccurrences(kmer string) int {
	count := f.FindInterval(kmer).Size()
	rc := sequence.ReverseComplement(kmer)
	if rc != kmer {
		count += f.FindInterval(rc).Size()
	}
	return int(count)
}

//ResolvePosition maps a sentinel rank, as produced by a backward walk that
//reached a sentinel or by a sentinel-anchored search, to the read that
//starts immediately after that sentinel
func (f *FMIndex) ResolvePosition(rank int64) int {
	return f.lexoRank[rank]
}

//ExtractString recovers the bases of a read by walking backwards from its
//sentinel
func (f *FMIndex) ExtractString(id int) string {
	row := f.sentinelRow[id]
	bs := make([]byte, 0, 200)
	for {
		b := f.bwt[row]
		if b == Sentinel {
			break
		}
		bs = append(bs, b)
		row = f.counts[symbolRank[b]] + f.Occurrences(b, row-1)
	}
	//the walk yields the read right to left
	for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
		bs[i], bs[j] = bs[j], bs[i]
	}
	return string(bs)
}
