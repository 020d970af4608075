package pgmstream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"asiread/internal/frame"
)

// RawFrame is one PGM image pulled off a stream, still in its on-disk
// shape: single channel, big-endian 16-bit when MaxVal exceeds 255.
type RawFrame struct {
	Width   int
	Height  int
	MaxVal  int
	Pixels  []byte // little-endian elements, converted from wire order
	Comment frame.Metadata
}

// DType returns the element type implied by MaxVal.
func (f *RawFrame) DType() frame.DType {
	if f.MaxVal > 255 {
		return frame.DTypeUint16
	}
	return frame.DTypeUint8
}

// ReadFrame reads the next PGM image from br. It returns io.EOF at a clean
// stream end and a descriptive error for anything malformed.
func ReadFrame(br *bufio.Reader) (*RawFrame, error) {
	magic, comments, err := readHeaderTokens(br, 1)
	if err != nil {
		return nil, err
	}
	if magic[0] != "P5" && magic[0] != "P2" {
		return nil, fmt.Errorf("unsupported PNM magic %q", magic[0])
	}
	ascii := magic[0] == "P2"

	// Once the magic is in, the stream is committed to a full frame; an
	// end of stream anywhere in the rest of the header is truncation.
	dims, more, err := readHeaderTokens(br, 3)
	if err != nil {
		return nil, fmt.Errorf("frame header: %w", unexpectedEOF(err))
	}
	for k, v := range more {
		comments[k] = v
	}

	width, err := strconv.Atoi(dims[0])
	if err != nil {
		return nil, fmt.Errorf("frame width %q: %w", dims[0], err)
	}
	height, err := strconv.Atoi(dims[1])
	if err != nil {
		return nil, fmt.Errorf("frame height %q: %w", dims[1], err)
	}
	maxVal, err := strconv.Atoi(dims[2])
	if err != nil {
		return nil, fmt.Errorf("frame maxval %q: %w", dims[2], err)
	}
	if width <= 0 || height <= 0 || maxVal <= 0 || maxVal > 65535 {
		return nil, fmt.Errorf("implausible frame header %dx%d maxval %d", width, height, maxVal)
	}

	out := &RawFrame{Width: width, Height: height, MaxVal: maxVal, Comment: comments}
	elems := width * height
	if ascii {
		if err := readASCIIPixels(br, out, elems); err != nil {
			return nil, err
		}
		return out, nil
	}

	// Exactly one whitespace byte separates the header from binary pixels.
	sep, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("frame pixels: %w", unexpectedEOF(err))
	}
	if !isSpace(sep) {
		return nil, fmt.Errorf("malformed header terminator 0x%02x", sep)
	}

	if maxVal > 255 {
		wire := make([]byte, elems*2)
		if _, err := io.ReadFull(br, wire); err != nil {
			return nil, fmt.Errorf("frame pixels: %w", unexpectedEOF(err))
		}
		// PGM stores 16-bit samples big-endian; tensors are little-endian.
		for i := 0; i < elems; i++ {
			wire[2*i], wire[2*i+1] = wire[2*i+1], wire[2*i]
		}
		out.Pixels = wire
		return out, nil
	}

	out.Pixels = make([]byte, elems)
	if _, err := io.ReadFull(br, out.Pixels); err != nil {
		return nil, fmt.Errorf("frame pixels: %w", unexpectedEOF(err))
	}
	return out, nil
}

func readASCIIPixels(br *bufio.Reader, out *RawFrame, elems int) error {
	size := 1
	if out.MaxVal > 255 {
		size = 2
	}
	out.Pixels = make([]byte, elems*size)
	for i := 0; i < elems; i++ {
		tok, err := readToken(br)
		if err != nil {
			return fmt.Errorf("frame pixel %d: %w", i, unexpectedEOF(err))
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("frame pixel %d: %w", i, err)
		}
		if size == 2 {
			binary.LittleEndian.PutUint16(out.Pixels[2*i:], uint16(v))
		} else {
			out.Pixels[i] = byte(v)
		}
	}
	return nil
}

// readHeaderTokens collects n whitespace-separated header tokens, gathering
// any interleaved comment lines into a metadata record. Comment lines of
// the form "# key: value" become entries keyed by the trimmed key.
//
// A stream that ends before any header content is a clean io.EOF, so the
// caller can recognize the end of a frame sequence. A stream that ends
// after the header has started is truncated and reports
// io.ErrUnexpectedEOF.
func readHeaderTokens(br *bufio.Reader, n int) ([]string, frame.Metadata, error) {
	tokens := make([]string, 0, n)
	meta := frame.Metadata{}
	started := false
	for len(tokens) < n {
		if err := skipSpace(br); err != nil {
			if started {
				return nil, nil, unexpectedEOF(err)
			}
			return nil, nil, err
		}
		b, err := br.Peek(1)
		if err != nil {
			if started {
				return nil, nil, unexpectedEOF(err)
			}
			return nil, nil, err
		}
		if b[0] == '#' {
			started = true
			line, err := br.ReadString('\n')
			if err != nil && err != io.EOF {
				return nil, nil, err
			}
			key, value, ok := splitComment(line)
			if ok {
				meta[key] = value
			}
			continue
		}
		tok, err := readToken(br)
		if err != nil {
			return nil, nil, unexpectedEOF(err)
		}
		tokens = append(tokens, tok)
		started = true
	}
	return tokens, meta, nil
}

func splitComment(line string) (string, string, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	if line == "" {
		return "", "", false
	}
	key, value, found := strings.Cut(line, ":")
	if !found {
		return strings.TrimSpace(line), "", true
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

func skipSpace(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return br.UnreadByte()
		}
	}
}

func readToken(br *bufio.Reader) (string, error) {
	if err := skipSpace(br); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			if err := br.UnreadByte(); err != nil {
				return "", err
			}
			break
		}
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return "", io.EOF
	}
	return sb.String(), nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
