package index

import (
	"strings"
	"testing"
)

var testReads = []string{"ACGTT", "CGTTA", "GTTAC"}

func TestExtractString(test *testing.T) {
	f, err := Build(testReads)
	if err != nil {
		test.Fatal(err)
	}
	for id, r := range testReads {
		if s := f.ExtractString(id); s != r {
			test.Errorf("read %d: expected %s, got %s", id, r, s)
		}
	}
}

func TestFindInterval(test *testing.T) {
	f, err := Build(testReads)
	if err != nil {
		test.Fatal(err)
	}
	if size := f.FindInterval("GTT").Size(); size != 3 {
		test.Error("GTT should occur in all three reads, got", size)
	}
	if size := f.FindInterval("CGTT").Size(); size != 2 {
		test.Error("CGTT should occur twice, got", size)
	}
	if iv := f.FindInterval("AAA"); iv.Valid() {
		test.Error("AAA should not be found:", iv)
	}
	if iv := f.FindInterval("ACGN"); iv.Valid() {
		test.Error("patterns outside the alphabet should be invalid")
	}
}

func TestCountOccurrences(test *testing.T) {
	f, err := Build(testReads)
	if err != nil {
		test.Fatal(err)
	}
	//AACG only matches via its reverse complement CGTT
	if count := f.CountOccurrences("AACG"); count != 2 {
		test.Error("expected 2 reverse strand hits, got", count)
	}
	//ACGT is its own reverse complement; count its occurrences once
	if count := f.CountOccurrences("ACGT"); count != 1 {
		test.Error("expected 1 palindromic hit, got", count)
	}
}

func TestSentinelAnchoredSearch(test *testing.T) {
	f, err := Build(testReads)
	if err != nil {
		test.Fatal(err)
	}
	//reads beginning with GTT
	iv := f.FindInterval("$GTT")
	if iv.Size() != 1 {
		test.Fatal("expected one read starting with GTT:", iv)
	}
	if id := f.ResolvePosition(iv.Lower); id != 2 {
		test.Error("expected read 2, got", id)
	}
	//the first read is reachable too
	iv = f.FindInterval("$ACG")
	if iv.Size() != 1 {
		test.Fatal("expected one read starting with ACG:", iv)
	}
	if id := f.ResolvePosition(iv.Lower); id != 0 {
		test.Error("expected read 0, got", id)
	}
	//reads ending with TTA
	if iv = f.FindInterval("TTA$"); iv.Size() != 1 {
		test.Error("expected one read ending with TTA:", iv)
	}
}

func TestBackwardWalkResolution(test *testing.T) {
	f, err := Build(testReads)
	if err != nil {
		test.Fatal(err)
	}
	//walk backward from every row of a mid-read match and check the owner
	iv := f.FindInterval("TTAC")
	if iv.Size() != 1 {
		test.Fatal("expected one TTAC hit:", iv)
	}
	row := iv.Lower
	for {
		b := f.Char(row)
		row = f.RankOffset(b) + f.Occurrences(b, row-1)
		if b == Sentinel {
			if id := f.ResolvePosition(row); id != 2 {
				test.Error("walk should resolve to read 2, got", id)
			}
			break
		}
	}
}

func TestBuildErrors(test *testing.T) {
	if _, err := Build(nil); err == nil {
		test.Error("expected an error for an empty read set")
	}
	if _, err := Build([]string{"ACGT", ""}); err == nil {
		test.Error("expected an error for an empty read")
	}
	if _, err := Build([]string{"ACGN"}); err == nil {
		test.Error("expected an error for a read outside the alphabet")
	}
}

func TestOccurrencesAcrossCheckpoints(test *testing.T) {
	//enough reads to span several occurrence checkpoints
	reads := make([]string, 200, 200)
	for i := range reads {
		reads[i] = "ACGTACGTAC"
	}
	f, err := Build(reads)
	if err != nil {
		test.Fatal(err)
	}
	total := int64(0)
	for _, b := range []byte{'A', 'C', 'G', 'T', Sentinel} {
		total += f.Occurrences(b, f.Len()-1)
	}
	if total != f.Len() {
		test.Error("occurrence counts should partition the text:", total, f.Len())
	}
	//CGTAC occurs at two offsets in every read
	if size := f.FindInterval("CGTAC").Size(); size != 400 {
		test.Error("expected 400 hits, got", size)
	}
	for id := 0; id < 200; id += 37 {
		if s := f.ExtractString(id); s != "ACGTACGTAC" {
			test.Errorf("read %d extraction failed: %s", id, s)
		}
	}
}

func TestCheckpointBoundaryText(test *testing.T) {
	//one 254-base read gives a text of exactly 256 symbols, so queries at the
	//last row land on a checkpoint boundary
	read := strings.Repeat("ACGT", 63) + "AC"
	f, err := Build([]string{read})
	if err != nil {
		test.Fatal(err)
	}
	if f.Len()%occSampleRate != 0 {
		test.Fatal("text length should be a checkpoint multiple:", f.Len())
	}
	total := int64(0)
	for _, b := range []byte{'A', 'C', 'G', 'T', Sentinel} {
		total += f.Occurrences(b, f.Len()-1)
	}
	if total != f.Len() {
		test.Error("occurrence counts should partition the text:", total, f.Len())
	}
	if size := f.FindInterval("ACGTAC").Size(); size != 63 {
		test.Error("expected 63 hits, got", size)
	}
	if count := f.CountOccurrences("ACGT"); count != 63 {
		test.Error("expected 63 palindromic hits, got", count)
	}
	if s := f.ExtractString(0); s != read {
		test.Error("extraction failed at the boundary:", len(s))
	}
}
