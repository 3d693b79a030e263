package correct

import (
	"testing"

	"github.com/jteutenberg/seqcorrect/index"
	"github.com/jteutenberg/seqcorrect/overlap"
	"github.com/jteutenberg/seqcorrect/sequence"
)

func TestKmerMatchPacking(test *testing.T) {
	m := newKmerMatch(1234, 98765432101, true)
	if m.offset() != 1234 || m.position() != 98765432101 || !m.reverse() {
		test.Error("bad packing:", m.offset(), m.position(), m.reverse())
	}
	m = newKmerMatch(0, 0, false)
	if m.offset() != 0 || m.position() != 0 || m.reverse() {
		test.Error("bad zero packing")
	}
}

func TestKmerMatchKeyIgnoresOffset(test *testing.T) {
	a := newKmerMatch(3, 1000, true)
	b := newKmerMatch(7, 1000, true)
	if a.key() != b.key() {
		test.Error("keys should collapse across offsets")
	}
	c := newKmerMatch(3, 1000, false)
	if a.key() == c.key() {
		test.Error("strand must stay part of the key")
	}
	d := newKmerMatch(3, 1001, true)
	if a.key() == d.key() {
		test.Error("position must stay part of the key")
	}
}

func TestBacktrackCandidates(test *testing.T) {
	idx, err := index.Build([]string{"ACGTTGCAA", "CCACGTTGC"})
	if err != nil {
		test.Fatal(err)
	}
	c := NewCorrector(Parameters{Index: idx})
	iv := idx.FindInterval("ACGTT")
	if iv.Size() != 2 {
		test.Fatal("expected the kmer in both reads:", iv)
	}
	candidates := make(map[kmerMatch]kmerMatch)
	addCandidates(candidates, iv, 0, false)
	if len(candidates) != 2 {
		test.Fatal("expected 2 candidates, got", len(candidates))
	}
	//the same interval at a different offset adds nothing new
	addCandidates(candidates, iv, 3, false)
	if len(candidates) != 2 {
		test.Error("offset should not affect candidate identity:", len(candidates))
	}
	confirmed := c.backtrackCandidates(candidates, 0)
	if len(confirmed) != 1 {
		test.Fatal("expected one confirmed match after skipping self:", confirmed)
	}
	if confirmed[0].readID != 1 || confirmed[0].rc {
		test.Error("bad confirmed match:", confirmed[0])
	}
}

func TestBacktrackOverlappingWalks(test *testing.T) {
	//two kmers from the same read must resolve it exactly once
	idx, err := index.Build([]string{"ACGTTGCAA", "CCACGTTGC"})
	if err != nil {
		test.Fatal(err)
	}
	c := NewCorrector(Parameters{Index: idx})
	candidates := make(map[kmerMatch]kmerMatch)
	addCandidates(candidates, idx.FindInterval("ACGTT"), 0, false)
	addCandidates(candidates, idx.FindInterval("GTTGC"), 2, false)
	confirmed := c.backtrackCandidates(candidates, 0)
	if len(confirmed) != 1 {
		test.Error("overlapping walks should confirm read 1 once:", confirmed)
	}
}

//blockStub reports a huge overlap span and refuses to do anything else
type blockStub struct {
	test *testing.T
}

func (s *blockStub) OverlapRead(seq string, minOverlap int) []overlap.Block {
	return []overlap.Block{{Length: minOverlap, Interval: index.Interval{Lower: 0, Upper: 20000}}}
}

func (s *blockStub) BuildMultiOverlap(root string, rootID int, blocks []overlap.Block) *overlap.MultiOverlap {
	s.test.Fatal("over-depth reads must not be resolved")
	return nil
}

func TestDepthFilterShortCircuit(test *testing.T) {
	c := NewCorrector(Parameters{
		Overlapper:       &blockStub{test},
		MinOverlap:       4,
		NumOverlapRounds: 5,
		ConflictCutoff:   5,
	})
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGTACGTAC", "deep"), Idx: 0}
	result := c.overlapCorrectionBlocks(item)
	if !result.OverlapQC {
		test.Error("over-depth reads pass through as trusted")
	}
	if result.Sequence != "ACGTACGTAC" {
		test.Error("over-depth reads must be unmodified:", result.Sequence)
	}
	if result.NumPrefixOverlaps != 20001 || result.NumSuffixOverlaps != 20001 {
		test.Error("overlap counts should report the span sum:", result)
	}
}

func TestIndexDrivenCorrection(test *testing.T) {
	reads := []string{"ACGTACGTAC", "ACGTACGTAC", "ACGTACGTAC", "ACGTTCGTAC"}
	idx, err := index.Build(reads)
	if err != nil {
		test.Fatal(err)
	}
	c := NewCorrector(Parameters{
		Algorithm:        AlgorithmOverlap,
		Index:            idx,
		KmerLength:       4,
		MinOverlap:       6,
		MinIdentity:      90,
		NumOverlapRounds: 1,
	})
	item := WorkItem{Seq: sequence.NewSequence(3, "ACGTTCGTAC", "bad"), Idx: 3}
	result := c.Correct(item)
	if !result.OverlapQC {
		test.Error("consensus was produced, QC should pass")
	}
	if result.Sequence != "ACGTACGTAC" {
		test.Error("neighbours should outvote the error:", result.Sequence)
	}
}

func TestIndexDrivenNoNeighbours(test *testing.T) {
	//a read sharing no kmers with anyone still produces a consensus of itself
	reads := []string{"ACGTACGTAC", "ACGTACGTAC", "TTTTGGGGTT"}
	idx, err := index.Build(reads)
	if err != nil {
		test.Fatal(err)
	}
	c := NewCorrector(Parameters{
		Algorithm:        AlgorithmOverlap,
		Index:            idx,
		KmerLength:       4,
		MinOverlap:       6,
		MinIdentity:      90,
		NumOverlapRounds: 1,
	})
	item := WorkItem{Seq: sequence.NewSequence(2, "TTTTGGGGTT", "lonely"), Idx: 2}
	result := c.Correct(item)
	if result.Sequence != "TTTTGGGGTT" {
		test.Error("no neighbours, no edits:", result.Sequence)
	}
}
