package correct

import (
	"sort"
	"strings"

	"github.com/jteutenberg/seqcorrect/align"
	"github.com/jteutenberg/seqcorrect/consensus"
	"github.com/jteutenberg/seqcorrect/index"
	"github.com/jteutenberg/seqcorrect/overlap"
	"github.com/jteutenberg/seqcorrect/sequence"
)

//per-base error rate assumed when resolving consensus conflicts
const conflictErrorRate = 0.01

//kmer intervals larger than this are too repetitive to be informative
const maxIntervalSize = 500

//band width for anchored extension alignments
const extensionBand = 20

//column cap passed to the consensus builder
const consensusMaxWidth = 10000

//overlapCorrectionBlocks refines the read by consensus with its discovered
//overlap neighbours, re-discovering after every edit until the consensus
//stops changing or the round limit is reached. Reads with more total overlap
//than the depth filter are passed through untouched with QC set.
func (c *Corrector) overlapCorrectionBlocks(item WorkItem) Result {
	result := Result{Sequence: item.Seq.String()}
	current := result.Sequence
	var mo *overlap.MultiOverlap
	for round := 0; ; round++ {
		blocks := c.params.Overlapper.OverlapRead(current, c.params.MinOverlap)
		sum := 0
		for _, b := range blocks {
			sum += b.Span()
		}
		if sum > c.params.DepthFilter {
			result.Sequence = current
			result.OverlapQC = true
			result.NumPrefixOverlaps = sum
			result.NumSuffixOverlaps = sum
			return result
		}
		mo = c.params.Overlapper.BuildMultiOverlap(current, item.Idx, blocks)
		result.NumPrefixOverlaps, result.NumSuffixOverlaps = mo.CountOverlaps()
		next := mo.ConsensusConflict(conflictErrorRate, c.params.ConflictCutoff)
		if next == current || round+1 >= c.params.NumOverlapRounds {
			current = next
			break
		}
		current = next
	}
	mo.UpdateRootSeq(current)
	result.Sequence = current
	result.OverlapQC = mo.QCCheck()
	return result
}

//kmerMatch packs a candidate match into 64 bits: 16 bits of query offset,
//47 bits of index position, one strand bit. Identity for deduplication is
//position and strand only; the offset just records where the kmer sat in
//the query.
type kmerMatch uint64

func newKmerMatch(offset int, position int64, rc bool) kmerMatch {
	m := kmerMatch(offset) << 48
	m |= kmerMatch(position) << 1
	if rc {
		m |= 1
	}
	return m
}

func (m kmerMatch) offset() int {
	return int(m >> 48)
}

func (m kmerMatch) position() int64 {
	return int64((m >> 1) & ((1 << 47) - 1))
}

func (m kmerMatch) reverse() bool {
	return m&1 == 1
}

//key drops the query offset, leaving position and strand
func (m kmerMatch) key() kmerMatch {
	return m & ((1 << 48) - 1)
}

type confirmedMatch struct {
	readID int
	offset int
	rc     bool
}

//overlapCorrectionIndex discovers neighbours directly from the index: every
//kmer window's interval yields candidate positions, candidates are
//backtracked to read identities, each neighbour is aligned against the
//current sequence, and the accepted alignments vote on a consensus. Runs a
//fixed number of rounds with no convergence check; all rounds except the
//last use an unfiltered consensus to seed the next round's matching.
func (c *Corrector) overlapCorrectionIndex(item WorkItem) Result {
	result := Result{Sequence: item.Seq.String()}
	original := result.Sequence
	current := original
	k := c.params.KmerLength
	idx := c.params.Index
	for round := 0; round < c.params.NumOverlapRounds; round++ {
		candidates := make(map[kmerMatch]kmerMatch)
		for i := 0; i+k <= len(current); i++ {
			kmer := current[i : i+k]
			addCandidates(candidates, idx.FindInterval(kmer), i, false)
			addCandidates(candidates, idx.FindInterval(sequence.ReverseComplement(kmer)), i, true)
		}
		confirmed := c.backtrackCandidates(candidates, item.Idx)

		ma := consensus.NewMultipleAlignment()
		ma.AddBase(current)
		for _, cm := range confirmed {
			other := idx.ExtractString(cm.readID)
			if cm.rc {
				other = sequence.ReverseComplement(other)
			}
			if cm.offset+k > len(current) {
				continue
			}
			kmer := current[cm.offset : cm.offset+k]
			posB := strings.Index(other, kmer)
			if posB < 0 {
				continue
			}
			//a kmer unique in both sequences pins the overlap to one
			//diagonal; repeats force the full alignment
			var a *align.Alignment
			if countOccurrences(current, kmer) == 1 && countOccurrences(other, kmer) == 1 {
				a = align.ExtendMatch(current, other, strings.Index(current, kmer), posB, extensionBand)
			} else {
				a = align.ComputeOverlap(current, other)
			}
			if a.OverlapLength() >= c.params.MinOverlap && a.PercentIdentity() >= c.params.MinIdentity {
				ma.AddOverlap(other, a)
			}
		}
		if round == c.params.NumOverlapRounds-1 {
			current = ma.BaseConsensus(consensusMaxWidth, 3)
		} else {
			current = ma.BaseConsensus(consensusMaxWidth, 0)
		}
	}
	if len(current) > 0 {
		result.Sequence = current
		result.OverlapQC = true
	} else {
		result.Sequence = original
	}
	return result
}

func addCandidates(candidates map[kmerMatch]kmerMatch, iv index.Interval, offset int, rc bool) {
	if !iv.Valid() || iv.Size() > maxIntervalSize {
		return
	}
	for row := iv.Lower; row <= iv.Upper; row++ {
		m := newKmerMatch(offset, row, rc)
		if _, ok := candidates[m.key()]; !ok {
			candidates[m.key()] = m
		}
	}
}

//backtrackCandidates walks every candidate backward through the index until
//a sentinel resolves it to a read identity, or until it touches a position
//another walk already visited. Walks within one read converge, so a visited
//position means the read is already recorded; dropping the walk keeps the
//whole pass linear in the index positions touched.
func (c *Corrector) backtrackCandidates(candidates map[kmerMatch]kmerMatch, selfID int) []confirmedMatch {
	idx := c.params.Index
	keys := make([]kmerMatch, 0, len(candidates))
	for key := range candidates {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	visited := make(map[kmerMatch]bool)
	recorded := make(map[confirmedMatch]bool)
	confirmed := make([]confirmedMatch, 0, len(keys))
	for _, key := range keys {
		m := candidates[key]
		rc := m.reverse()
		pos := m.position()
		resolved := -1
		for {
			vk := newKmerMatch(0, pos, rc).key()
			if visited[vk] {
				break
			}
			visited[vk] = true
			b := idx.Char(pos)
			pos = idx.RankOffset(b) + idx.Occurrences(b, pos-1)
			if b == index.Sentinel {
				resolved = idx.ResolvePosition(pos)
				break
			}
		}
		if resolved < 0 || resolved == selfID {
			continue
		}
		id := confirmedMatch{readID: resolved, offset: m.offset(), rc: rc}
		dedup := confirmedMatch{readID: resolved, rc: rc}
		if !recorded[dedup] {
			recorded[dedup] = true
			confirmed = append(confirmed, id)
		}
	}
	return confirmed
}

//countOccurrences counts matches of sub in s, including overlapping ones
func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
