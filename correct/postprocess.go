package correct

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/jteutenberg/seqcorrect/metrics"
	"github.com/jteutenberg/seqcorrect/sequence"
)

//length of sequence context tracked before each base
const precedingLen = 2

//ErrorTable tracks (samples, errors) bucketed by one key: base position,
//quality value, original base or preceding context
type ErrorTable[K cmp.Ordered] struct {
	name    string
	samples map[K]int64
	errors  map[K]int64
}

func NewErrorTable[K cmp.Ordered](name string) *ErrorTable[K] {
	return &ErrorTable[K]{
		name:    name,
		samples: make(map[K]int64),
		errors:  make(map[K]int64),
	}
}

func (t *ErrorTable[K]) IncrementSample(key K) {
	t.samples[key]++
}

func (t *ErrorTable[K]) IncrementError(key K) {
	t.errors[key]++
}

func (t *ErrorTable[K]) Write(w io.Writer) {
	keys := make([]K, 0, len(t.samples))
	for k := range t.samples {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fmt.Fprintf(w, "%s\n", t.name)
	for _, k := range keys {
		s := t.samples[k]
		e := t.errors[k]
		fmt.Fprintf(w, "%v\t%d\t%d\t%.6f\n", k, s, e, float64(e)/float64(s))
	}
	fmt.Fprintln(w)
}

//PostProcessor classifies correction results, routes reads to the kept or
//discarded output, and accumulates error statistics. It owns its counters;
//a fresh run needs a fresh instance. Not safe for concurrent use: feed it
//from a single goroutine.
type PostProcessor struct {
	kept           *sequence.Writer
	discard        *sequence.Writer
	collectMetrics bool
	prom           *metrics.Metrics

	kmerQCPassed    int64
	overlapQCPassed int64
	qcFailed        int64
	readsKept       int64
	readsDiscarded  int64
	totalBases      int64
	totalErrors     int64

	positionErrors *ErrorTable[int]
	qualityErrors  *ErrorTable[int]
	baseErrors     *ErrorTable[string]
	contextErrors  *ErrorTable[string]
}

//NewPostProcessor routes passing reads to kept and failing reads to discard.
//A nil discard writer sends every read to kept. A nil prom skips the
//exported counters; collectMetrics gates the per-base error tables.
func NewPostProcessor(kept, discard *sequence.Writer, collectMetrics bool, prom *metrics.Metrics) *PostProcessor {
	return &PostProcessor{
		kept:           kept,
		discard:        discard,
		collectMetrics: collectMetrics,
		prom:           prom,
		positionErrors: NewErrorTable[int]("errors by read position"),
		qualityErrors:  NewErrorTable[int]("errors by quality value"),
		baseErrors:     NewErrorTable[string]("errors by original base"),
		contextErrors:  NewErrorTable[string]("errors by preceding context"),
	}
}

//Process consumes one corrected read. Calling it twice for the same read
//double-counts and duplicates output.
func (pp *PostProcessor) Process(item WorkItem, result Result) error {
	passed := result.KmerQC || result.OverlapQC
	if result.KmerQC {
		pp.kmerQCPassed++
		if pp.prom != nil {
			pp.prom.KmerQCPassed.Inc()
		}
	} else if result.OverlapQC {
		pp.overlapQCPassed++
		if pp.prom != nil {
			pp.prom.OverlapQCPassed.Inc()
		}
	} else {
		pp.qcFailed++
		if pp.prom != nil {
			pp.prom.QCFailed.Inc()
		}
	}
	if passed && pp.collectMetrics {
		pp.collectReadMetrics(item, result)
	}
	if passed || pp.discard == nil {
		pp.readsKept++
		if pp.prom != nil {
			pp.prom.ReadsKept.Inc()
		}
		return pp.kept.WriteRecord(item.Seq.GetName(), result.Sequence, item.Seq.Quality())
	}
	pp.readsDiscarded++
	if pp.prom != nil {
		pp.prom.ReadsDiscarded.Inc()
	}
	return pp.discard.WriteRecord(item.Seq.GetName(), result.Sequence, item.Seq.Quality())
}

func (pp *PostProcessor) collectReadMetrics(item WorkItem, result Result) {
	original := item.Seq.String()
	corrected := result.Sequence
	n := len(original)
	if len(corrected) < n {
		n = len(corrected)
	}
	for i := 0; i < n; i++ {
		pp.totalBases++
		q := item.Seq.PhredAt(i)
		b := original[i : i+1]
		pp.positionErrors.IncrementSample(i)
		pp.qualityErrors.IncrementSample(q)
		pp.baseErrors.IncrementSample(b)
		context := ""
		if i > precedingLen {
			context = original[i-precedingLen : i]
			pp.contextErrors.IncrementSample(context)
		}
		if original[i] != corrected[i] {
			pp.totalErrors++
			if pp.prom != nil {
				pp.prom.BasesCorrected.Inc()
			}
			pp.positionErrors.IncrementError(i)
			pp.qualityErrors.IncrementError(q)
			pp.baseErrors.IncrementError(b)
			if context != "" {
				pp.contextErrors.IncrementError(context)
			}
		}
	}
}

func (pp *PostProcessor) ReadsKept() int64 {
	return pp.readsKept
}

func (pp *PostProcessor) ReadsDiscarded() int64 {
	return pp.readsDiscarded
}

func (pp *PostProcessor) KmerQCPassed() int64 {
	return pp.kmerQCPassed
}

func (pp *PostProcessor) OverlapQCPassed() int64 {
	return pp.overlapQCPassed
}

func (pp *PostProcessor) QCFailed() int64 {
	return pp.qcFailed
}

//Summary logs the pass/fail breakdown for the whole run
func (pp *PostProcessor) Summary() {
	log.Infof("reads kept: %d, discarded: %d", pp.readsKept, pp.readsDiscarded)
	log.Infof("kmer QC passed: %d, overlap QC passed: %d, failed: %d",
		pp.kmerQCPassed, pp.overlapQCPassed, pp.qcFailed)
}

//WriteMetrics writes the per-bucket error tables and overall rates
func (pp *PostProcessor) WriteMetrics(w io.Writer) {
	total := pp.readsKept + pp.readsDiscarded
	fmt.Fprintf(w, "bases sampled\t%d\n", pp.totalBases)
	fmt.Fprintf(w, "bases corrected\t%d\n", pp.totalErrors)
	if pp.totalBases > 0 {
		fmt.Fprintf(w, "correction rate\t%.6f\n", float64(pp.totalErrors)/float64(pp.totalBases))
	}
	if total > 0 {
		fmt.Fprintf(w, "reads discarded\t%d of %d (%.6f)\n", pp.readsDiscarded, total,
			float64(pp.readsDiscarded)/float64(total))
	}
	fmt.Fprintln(w)
	pp.positionErrors.Write(w)
	pp.qualityErrors.Write(w)
	pp.baseErrors.Write(w)
	pp.contextErrors.Write(w)
}
