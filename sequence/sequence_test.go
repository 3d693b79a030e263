package sequence

import (
	"testing"
)

func TestRoundTrip(test *testing.T) {
	s := NewSequence(0, "ACGTACGT", "read1")
	if s.String() != "ACGTACGT" {
		test.Error("bad round trip:", s.String())
	}
	if s.Len() != 8 {
		test.Error("bad length:", s.Len())
	}
	if s.GetName() != "read1" {
		test.Error("bad name:", s.GetName())
	}
}

func TestNamelessSequence(test *testing.T) {
	s := NewSequence(7, "ACGT", "")
	if s.GetName() != "7" {
		test.Error("expected id as name, got", s.GetName())
	}
}

func TestReverseComplementSequence(test *testing.T) {
	s := NewQualitySequence(0, "AACGT", "r", []byte{10, 20, 30, 40, 50})
	rc := s.ReverseComplement()
	if rc.String() != "ACGTT" {
		test.Error("bad reverse complement:", rc.String())
	}
	//quality reverses along with the bases
	if rc.PhredAt(0) != 50 || rc.PhredAt(4) != 10 {
		test.Error("quality not reversed:", rc.Quality())
	}
}

func TestReverseComplementString(test *testing.T) {
	if rc := ReverseComplement("AACGT"); rc != "ACGTT" {
		test.Error("bad reverse complement:", rc)
	}
	if rc := ReverseComplement("ACGT"); rc != "ACGT" {
		test.Error("palindrome should be unchanged:", rc)
	}
}

func TestPhredDefaults(test *testing.T) {
	s := NewSequence(0, "ACGT", "r")
	if s.PhredAt(2) != DefaultPhred {
		test.Error("expected default phred, got", s.PhredAt(2))
	}
	q := NewQualitySequence(0, "ACGT", "r", []byte{5, 6, 7, 8})
	if q.PhredAt(2) != 7 {
		test.Error("expected 7, got", q.PhredAt(2))
	}
}
