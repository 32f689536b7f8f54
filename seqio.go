package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/dotnetbio/bio-sub011/sequence"
)

const fastaLineWidth = 60

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// multiCloser closes the decompressor before the file under it.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (mc *multiCloser) Close() error {
	var err error
	for _, c := range mc.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// wrapReader picks a decompressor by the file name suffix.
func wrapReader(fn string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(fn, ".zst"):
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{zr}, nil
	case strings.HasSuffix(fn, ".br"):
		return cbrotli.NewReaderSize(r, 1<<20), nil
	case strings.HasSuffix(fn, ".gz"):
		return gzip.NewReader(r)
	}
	return io.NopCloser(r), nil
}

func openReader(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	dr, err := wrapReader(fn, bufio.NewReader(fp))
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("[openReader] file: %s, err: %v", fn, err)
	}
	return &multiCloser{Reader: dr, closers: []io.Closer{dr, fp}}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func wrapWriter(fn string, w io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(fn, ".zst"):
		return zstd.NewWriter(w, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(1))
	case strings.HasSuffix(fn, ".br"):
		return cbrotli.NewWriter(w, cbrotli.WriterOptions{Quality: 1}), nil
	case strings.HasSuffix(fn, ".gz"):
		return gzip.NewWriter(w), nil
	}
	return nopWriteCloser{w}, nil
}

type fileWriter struct {
	io.Writer
	cw  io.WriteCloser
	buf *bufio.Writer
	fp  *os.File
}

func (fw *fileWriter) Close() error {
	err := fw.cw.Close()
	if e := fw.buf.Flush(); err == nil {
		err = e
	}
	if e := fw.fp.Close(); err == nil {
		err = e
	}
	return err
}

func createWriter(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(fp, 1<<20)
	cw, err := wrapWriter(fn, buf)
	if err != nil {
		fp.Close()
		return nil, err
	}
	return &fileWriter{Writer: cw, cw: cw, buf: buf, fp: fp}, nil
}

// ReadFasta parses every record of r. Symbols are upper-cased.
func ReadFasta(r io.Reader) ([]sequence.Sequence, error) {
	var seqs []sequence.Sequence
	fafp := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	for {
		s, err := fafp.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		l := s.(*linear.Seq)
		seqs = append(seqs, sequence.New(l.ID, sequence.Normalize(alphabet.LettersToBytes(l.Seq))))
	}
	return seqs, nil
}

// LoadReads reads the FASTA files fns in order.
func LoadReads(fns []string) ([]sequence.Sequence, error) {
	var reads []sequence.Sequence
	for _, fn := range fns {
		fp, err := openReader(fn)
		if err != nil {
			return nil, err
		}
		seqs, err := ReadFasta(fp)
		fp.Close()
		if err != nil {
			return nil, fmt.Errorf("[LoadReads] file: %s, err: %v", fn, err)
		}
		reads = append(reads, seqs...)
	}
	return reads, nil
}

func WriteFasta(w io.Writer, seqs []sequence.Sequence) error {
	fw := fasta.NewWriter(w, fastaLineWidth)
	for _, s := range seqs {
		if _, err := fw.Write(linear.NewSeq(s.ID, alphabet.BytesToLetters(s.Seq), alphabet.DNA)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFastaFile writes seqs to fn, compressed according to its suffix.
func WriteFastaFile(fn string, seqs []sequence.Sequence) error {
	fp, err := createWriter(fn)
	if err != nil {
		return err
	}
	if err := WriteFasta(fp, seqs); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
