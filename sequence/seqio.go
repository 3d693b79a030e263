package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

//Reader streams sequences from fasta or fastq input. The format is detected
//from the first record; fasta sequences may span multiple lines.
type Reader struct {
	br      *bufio.Reader
	closers []io.Closer
	nextID  int
	peeked  []byte
	done    bool
}

func NewReader(in io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(in, 1<<20)}
}

//Open opens a fasta/fastq file for reading, decompressing .gz input
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening sequence input")
	}
	var in io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "opening gzip input %s", filename)
		}
		in = gz
		closers = append(closers, gz)
	}
	r := NewReader(in)
	r.closers = closers
	return r, nil
}

func (r *Reader) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if e := r.closers[i].Close(); e != nil {
			err = e
		}
	}
	return err
}

func (r *Reader) readLine() ([]byte, error) {
	if r.peeked != nil {
		line := r.peeked
		r.peeked = nil
		return line, nil
	}
	for {
		line, err := r.br.ReadBytes('\n')
		line = trimEOL(line)
		if len(line) > 0 {
			return line, err
		}
		if err != nil {
			return nil, err
		}
	}
}

func trimEOL(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

//Read returns the next sequence, or io.EOF once the input is exhausted
func (r *Reader) Read() (Sequence, error) {
	if r.done {
		return nil, io.EOF
	}
	header, err := r.readLine()
	if header == nil {
		r.done = true
		return nil, io.EOF
	}
	switch header[0] {
	case '@':
		return r.readFastq(header, err)
	case '>':
		return r.readFasta(header, err)
	}
	r.done = true
	return nil, errors.Errorf("invalid sequence input: unexpected line %q", string(header))
}

func (r *Reader) readFasta(header []byte, err error) (Sequence, error) {
	name := strings.Fields(string(header[1:]))
	var sb strings.Builder
	for err == nil {
		var line []byte
		line, err = r.readLine()
		if line == nil {
			break
		}
		if line[0] == '>' || line[0] == '@' {
			r.peeked = line
			break
		}
		sb.Write(line)
	}
	if sb.Len() == 0 {
		r.done = true
		return nil, io.EOF
	}
	id := r.nextID
	r.nextID++
	n := ""
	if len(name) > 0 {
		n = name[0]
	}
	return NewSequence(id, sb.String(), n), nil
}

func (r *Reader) readFastq(header []byte, err error) (Sequence, error) {
	name := strings.Fields(string(header[1:]))
	seq, err := r.readLine()
	if seq == nil {
		r.done = true
		return nil, io.EOF
	}
	plus, err := r.readLine()
	if plus == nil || plus[0] != '+' {
		r.done = true
		return nil, errors.Errorf("invalid fastq format (on + line): %q", string(plus))
	}
	qual, _ := r.readLine()
	if len(qual) != len(seq) {
		r.done = true
		return nil, errors.Errorf("fastq quality length %d does not match sequence length %d", len(qual), len(seq))
	}
	quality := make([]byte, len(qual), len(qual))
	for i, b := range qual {
		quality[i] = b - 33
	}
	id := r.nextID
	r.nextID++
	n := ""
	if len(name) > 0 {
		n = name[0]
	}
	return NewQualitySequence(id, string(seq), n, quality), nil
}

//ReadAll reads every sequence from a fasta/fastq file into memory
func ReadAll(filename string) ([]Sequence, error) {
	r, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	seqs := make([]Sequence, 0, 100000)
	for {
		s, err := r.Read()
		if err == io.EOF {
			return seqs, nil
		}
		if err != nil {
			return seqs, err
		}
		seqs = append(seqs, s)
	}
}

//Writer writes sequences back out, as fastq when quality values are
//available and fasta otherwise
type Writer struct {
	out *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

//WriteRecord writes a record with an explicit base string, keeping the name
//and quality of the original sequence. This is how corrected reads are
//emitted: only the bases are replaced.
func (w *Writer) WriteRecord(name string, seq string, quality []byte) error {
	var err error
	if quality != nil && len(quality) == len(seq) {
		q := make([]byte, len(quality), len(quality))
		for i, b := range quality {
			q[i] = b + 33
		}
		_, err = fmt.Fprintf(w.out, "@%s\n%s\n+\n%s\n", name, seq, string(q))
	} else {
		_, err = fmt.Fprintf(w.out, ">%s\n%s\n", name, seq)
	}
	return err
}

func (w *Writer) Write(s Sequence) error {
	return w.WriteRecord(s.GetName(), s.String(), s.Quality())
}

func (w *Writer) Flush() error {
	return w.out.Flush()
}
