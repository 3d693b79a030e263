package correct

import (
	"fmt"
	"strings"

	"github.com/jteutenberg/seqcorrect/index"
	"github.com/jteutenberg/seqcorrect/overlap"
	"github.com/jteutenberg/seqcorrect/sequence"
	"github.com/jteutenberg/seqcorrect/util"
	"github.com/pkg/errors"
)

//The correct package holds the correction engine itself: the kmer spectrum
//corrector, the two overlap correctors, and the dispatcher that combines
//their verdicts. Correctors are pure functions of a work item and the
//read-only parameters, so one Corrector can serve many workers at once.

var log = util.GetLogger("correct")

type Algorithm int

const (
	AlgorithmKmer Algorithm = iota
	AlgorithmOverlap
	AlgorithmHybrid
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmKmer:
		return "kmer"
	case AlgorithmOverlap:
		return "overlap"
	case AlgorithmHybrid:
		return "hybrid"
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "kmer":
		return AlgorithmKmer, nil
	case "overlap":
		return AlgorithmOverlap, nil
	case "hybrid":
		return AlgorithmHybrid, nil
	}
	return AlgorithmKmer, errors.Errorf("unknown correction algorithm %q", name)
}

//WorkItem is one read to correct plus its ordinal in the indexed read set
type WorkItem struct {
	Seq sequence.Sequence
	Idx int
}

//Result is the outcome of correcting one read. A result with neither QC
//flag set is a best attempt, not a guarantee.
type Result struct {
	Sequence          string
	KmerQC            bool
	OverlapQC         bool
	NumPrefixOverlaps int
	NumSuffixOverlaps int
}

//Index is the part of the read index the correctors query. All methods must
//be safe for concurrent use.
type Index interface {
	FindInterval(pattern string) index.Interval
	CountOccurrences(kmer string) int
	Char(row int64) byte
	RankOffset(b byte) int64
	Occurrences(b byte, row int64) int64
	ResolvePosition(rank int64) int
	ExtractString(id int) string
}

//Overlapper discovers overlap blocks and resolves them, used by the
//block-list corrector
type Overlapper interface {
	OverlapRead(seq string, minOverlap int) []overlap.Block
	BuildMultiOverlap(root string, rootID int, blocks []overlap.Block) *overlap.MultiOverlap
}

type Parameters struct {
	Algorithm        Algorithm
	Index            Index
	Overlapper       Overlapper
	Thresholds       Thresholds
	KmerLength       int
	MinOverlap       int
	MinIdentity      float64
	NumKmerRounds    int
	NumOverlapRounds int
	ConflictCutoff   int
	DepthFilter      int
	Verbose          bool
}

//reads with more overlap than this are passed through untouched
const defaultDepthFilter = 10000

type Corrector struct {
	params Parameters
}

func NewCorrector(params Parameters) *Corrector {
	params.DepthFilter = defaultDepthFilter
	return &Corrector{params: params}
}

//Correct runs the configured correction algorithm on one read. The hybrid
//algorithm falls back from kmer correction to the block-list overlap
//corrector, discarding the failed kmer result entirely.
func (c *Corrector) Correct(item WorkItem) Result {
	var result Result
	switch c.params.Algorithm {
	case AlgorithmKmer:
		result = c.kmerCorrection(item)
	case AlgorithmOverlap:
		result = c.overlapCorrectionIndex(item)
	case AlgorithmHybrid:
		result = c.kmerCorrection(item)
		if !result.KmerQC {
			result = c.overlapCorrectionBlocks(item)
		}
	default:
		panic(fmt.Sprintf("unknown correction algorithm %d", int(c.params.Algorithm)))
	}
	if c.params.Verbose && !result.KmerQC && !result.OverlapQC {
		log.Infof("read %s failed to correct", item.Seq.GetName())
	}
	return result
}
