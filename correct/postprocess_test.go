package correct

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jteutenberg/seqcorrect/sequence"
)

func TestRoutingKept(test *testing.T) {
	var kept, discarded bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), sequence.NewWriter(&discarded), false, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGT", "r1"), Idx: 0}
	if err := pp.Process(item, Result{Sequence: "ACGT", KmerQC: true}); err != nil {
		test.Fatal(err)
	}
	if pp.KmerQCPassed() != 1 || pp.ReadsKept() != 1 || pp.ReadsDiscarded() != 0 {
		test.Error("bad counters:", pp.KmerQCPassed(), pp.ReadsKept(), pp.ReadsDiscarded())
	}
	flushAll(pp)
	if !strings.Contains(kept.String(), "ACGT") || discarded.Len() != 0 {
		test.Error("read routed to the wrong output")
	}
}

func TestRoutingDiscarded(test *testing.T) {
	var kept, discarded bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), sequence.NewWriter(&discarded), false, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGT", "r1"), Idx: 0}
	if err := pp.Process(item, Result{Sequence: "ACGT"}); err != nil {
		test.Fatal(err)
	}
	if pp.QCFailed() != 1 || pp.ReadsDiscarded() != 1 {
		test.Error("bad counters:", pp.QCFailed(), pp.ReadsDiscarded())
	}
	flushAll(pp)
	if kept.Len() != 0 || !strings.Contains(discarded.String(), "ACGT") {
		test.Error("failing read should go to the discard output")
	}
}

func TestNoDiscardOutput(test *testing.T) {
	var kept bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), nil, false, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGT", "r1"), Idx: 0}
	if err := pp.Process(item, Result{Sequence: "ACGT"}); err != nil {
		test.Fatal(err)
	}
	if pp.ReadsKept() != 1 || pp.QCFailed() != 1 {
		test.Error("without a discard output every read is kept:", pp.ReadsKept())
	}
}

func TestOverlapQCCounted(test *testing.T) {
	var kept bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), nil, false, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGT", "r1"), Idx: 0}
	pp.Process(item, Result{Sequence: "ACGT", OverlapQC: true})
	//kmer QC is checked first; a read passing both counts as kmer
	pp.Process(item, Result{Sequence: "ACGT", KmerQC: true, OverlapQC: true})
	if pp.OverlapQCPassed() != 1 || pp.KmerQCPassed() != 1 {
		test.Error("bad QC split:", pp.KmerQCPassed(), pp.OverlapQCPassed())
	}
}

func TestQualityPreserved(test *testing.T) {
	var kept bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), nil, false, nil)
	item := WorkItem{Seq: sequence.NewQualitySequence(0, "ACTT", "r1", []byte{40, 40, 40, 40}), Idx: 0}
	if err := pp.Process(item, Result{Sequence: "ACGT", KmerQC: true}); err != nil {
		test.Fatal(err)
	}
	flushAll(pp)
	if kept.String() != "@r1\nACGT\n+\nIIII\n" {
		test.Errorf("corrected bases with the original quality expected:\n%s", kept.String())
	}
}

func TestErrorMetrics(test *testing.T) {
	var kept bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), nil, true, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGTACGTAC", "r1"), Idx: 0}
	pp.Process(item, Result{Sequence: "ACGAACGTAC", KmerQC: true})
	if pp.totalBases != 10 || pp.totalErrors != 1 {
		test.Error("bad totals:", pp.totalBases, pp.totalErrors)
	}
	var report bytes.Buffer
	pp.WriteMetrics(&report)
	out := report.String()
	if !strings.Contains(out, "bases corrected\t1") {
		test.Error("missing corrected count in report")
	}
	if !strings.Contains(out, "errors by preceding context") {
		test.Error("missing context table in report")
	}
	//the error at position 3 follows the context CG
	if !strings.Contains(out, "CG\t") {
		test.Error("missing context bucket in report:\n" + out)
	}
}

func TestMetricsSkipFailedReads(test *testing.T) {
	var kept bytes.Buffer
	pp := NewPostProcessor(sequence.NewWriter(&kept), nil, true, nil)
	item := WorkItem{Seq: sequence.NewSequence(0, "ACGT", "r1"), Idx: 0}
	pp.Process(item, Result{Sequence: "AGGT"})
	if pp.totalBases != 0 {
		test.Error("failed reads should not be sampled:", pp.totalBases)
	}
}

func TestErrorTable(test *testing.T) {
	t := NewErrorTable[int]("by position")
	t.IncrementSample(3)
	t.IncrementSample(3)
	t.IncrementError(3)
	t.IncrementSample(1)
	var buf bytes.Buffer
	t.Write(&buf)
	out := buf.String()
	if !strings.HasPrefix(out, "by position\n") {
		test.Error("missing table name:\n" + out)
	}
	if !strings.Contains(out, "3\t2\t1\t0.500000") {
		test.Error("bad table row:\n" + out)
	}
	//keys come out sorted
	if strings.Index(out, "1\t") > strings.Index(out, "3\t") {
		test.Error("keys should be sorted:\n" + out)
	}
}

func flushAll(pp *PostProcessor) {
	pp.kept.Flush()
	if pp.discard != nil {
		pp.discard.Flush()
	}
}
