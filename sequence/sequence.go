package sequence

import (
	"fmt"
)

type Sequence interface {
	GetID() int
	GetName() string
	String() string
	Len() int
	Quality() []byte
	PhredAt(int) int
	ReverseComplement() Sequence
}

//byteSequence uses an internal mapping of A=0, C=1, G=2, T=3 storing
//the sequence as a byte slice. Quality values are phred scores with the
//fastq offset already removed.
type byteSequence struct {
	data    []byte
	quality []byte
	id      int
	name    string
}

//DefaultPhred is assumed for every base of a sequence with no quality string
const DefaultPhred = 40

func NewSequence(id int, seq string, name string) Sequence {
	data := make([]byte, len(seq), len(seq))
	for i, s := range seq {
		b := byte(s)
		data[i] = ((b >> 1) ^ ((b & 4) >> 2)) & 3
	}
	s := byteSequence{data: data, quality: nil, id: id, name: name}
	return &s
}

func NewQualitySequence(id int, seq string, name string, quality []byte) Sequence {
	s := NewSequence(id, seq, name).(*byteSequence)
	if len(quality) == len(s.data) {
		s.quality = quality
	}
	return s
}

func (s *byteSequence) GetID() int {
	return s.id
}

func (s *byteSequence) GetName() string {
	if s.name == "" {
		return fmt.Sprint(s.id)
	}
	return s.name
}

func (s *byteSequence) String() string {
	buf := make([]byte, len(s.data), len(s.data))
	for i, b := range s.data {
		buf[i] = bases[b]
	}
	return string(buf)
}

func (s *byteSequence) Len() int {
	return len(s.data)
}

func (s *byteSequence) Quality() []byte {
	return s.quality
}

//PhredAt gives the phred score of the base at i, assuming DefaultPhred when
//no quality string was read
func (s *byteSequence) PhredAt(i int) int {
	if s.quality == nil {
		return DefaultPhred
	}
	return int(s.quality[i])
}

func (s *byteSequence) ReverseComplement() Sequence {
	bs := make([]byte, len(s.data), len(s.data))
	for i, b := range s.data {
		bs[len(bs)-1-i] = b ^ 3
	}
	rc := byteSequence{data: bs, quality: nil, id: s.id, name: s.name}
	if s.quality != nil {
		qs := make([]byte, len(s.quality), len(s.quality))
		for i, q := range s.quality {
			qs[len(qs)-1-i] = q
		}
		rc.quality = qs
	}
	return &rc
}

var bases = [4]byte{'A', 'C', 'G', 'T'}

//ReverseComplement is the string-space equivalent of the Sequence method,
//used by the correctors which work on plain base strings
func ReverseComplement(seq string) string {
	bs := make([]byte, len(seq), len(seq))
	for i := 0; i < len(seq); i++ {
		var c byte
		switch seq[i] {
		case 'A':
			c = 'T'
		case 'C':
			c = 'G'
		case 'G':
			c = 'C'
		case 'T':
			c = 'A'
		default:
			c = 'N'
		}
		bs[len(bs)-1-i] = c
	}
	return string(bs)
}
