package idlsave

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Record type codes.
const (
	recVariable  = 2
	recEnd       = 6
	recTimestamp = 10
	recVersion   = 14
)

// Variable type codes.
const (
	typeByte   = 1
	typeInt    = 2
	typeLong   = 3
	typeFloat  = 4
	typeDouble = 5
	typeString = 7
	typeStruct = 8
)

// Variable flags.
const (
	flagArray  = 0x04
	flagStruct = 0x20
)

var signature = []byte{'S', 'R', 0x00, 0x04}

// Timestamp is the generation stamp record present in every archive.
type Timestamp struct {
	Date string
	User string
	Host string
}

// Version describes the writing pipeline and the archive schema revision.
// Schema gates which optional provenance fields a file carries.
type Version struct {
	Schema  int32
	Arch    string
	OS      string
	Release string
}

// Record is one element of a struct variable: tag name to value. Values
// are Go scalars (int32, float32, float64, string) or slices of those.
type Record map[string]any

// File is a fully parsed archive.
type File struct {
	Timestamp Timestamp
	Version   Version
	Vars      map[string]any
}

// Struct returns the named struct variable's records.
func (f *File) Struct(name string) ([]Record, error) {
	v, ok := f.Vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %s not present", name)
	}
	recs, ok := v.([]Record)
	if !ok {
		return nil, fmt.Errorf("variable %s is not a structure", name)
	}
	return recs, nil
}

// Read parses the archive at path.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse parses an archive from memory.
func Parse(raw []byte) (*File, error) {
	if len(raw) < len(signature) || !bytes.Equal(raw[:len(signature)], signature) {
		return nil, fmt.Errorf("not a save archive: bad signature")
	}

	out := &File{Vars: map[string]any{}}
	r := &reader{buf: raw, off: int64(len(signature))}

	for {
		recType, next, err := r.recordHeader()
		if err != nil {
			return nil, err
		}
		switch recType {
		case recEnd:
			return out, nil
		case recTimestamp:
			if err := r.timestamp(&out.Timestamp); err != nil {
				return nil, err
			}
		case recVersion:
			if err := r.version(&out.Version); err != nil {
				return nil, err
			}
		case recVariable:
			name, value, err := r.variable()
			if err != nil {
				return nil, err
			}
			out.Vars[name] = value
		default:
			// Unknown records are skipped via the next-record pointer so
			// newer writers stay readable.
		}
		if next <= r.off && recType != recEnd {
			return nil, fmt.Errorf("record chain does not advance at offset %d", r.off)
		}
		r.off = next
	}
}

type reader struct {
	buf []byte
	off int64
}

func (r *reader) remaining() int64 { return int64(len(r.buf)) - r.off }

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) f64() (float64, error) {
	if r.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return math.Float64frombits(v), nil
}

// str reads a length-prefixed string padded to a 4-byte boundary.
func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	padded := int64(n+3) &^ 3
	if r.remaining() < padded {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.buf[r.off : r.off+int64(n)])
	r.off += padded
	return s, nil
}

// recordHeader reads {type, next-record offset, two reserved words}.
func (r *reader) recordHeader() (uint32, int64, error) {
	recType, err := r.u32()
	if err != nil {
		return 0, 0, err
	}
	next, err := r.u32()
	if err != nil {
		return 0, 0, err
	}
	for i := 0; i < 2; i++ {
		if _, err := r.u32(); err != nil {
			return 0, 0, err
		}
	}
	if int64(next) > int64(len(r.buf)) && recType != recEnd {
		return 0, 0, fmt.Errorf("record points past end of file")
	}
	return recType, int64(next), nil
}

func (r *reader) timestamp(ts *Timestamp) error {
	var err error
	if ts.Date, err = r.str(); err != nil {
		return fmt.Errorf("timestamp record: %w", err)
	}
	if ts.User, err = r.str(); err != nil {
		return fmt.Errorf("timestamp record: %w", err)
	}
	if ts.Host, err = r.str(); err != nil {
		return fmt.Errorf("timestamp record: %w", err)
	}
	return nil
}

func (r *reader) version(v *Version) error {
	var err error
	if v.Schema, err = r.i32(); err != nil {
		return fmt.Errorf("version record: %w", err)
	}
	if v.Arch, err = r.str(); err != nil {
		return fmt.Errorf("version record: %w", err)
	}
	if v.OS, err = r.str(); err != nil {
		return fmt.Errorf("version record: %w", err)
	}
	if v.Release, err = r.str(); err != nil {
		return fmt.Errorf("version record: %w", err)
	}
	return nil
}

// tagDesc describes one member of a struct variable.
type tagDesc struct {
	name     string
	typeCode uint32
	flags    uint32
	count    uint32 // array length; 1 for scalars
}

func (r *reader) variable() (string, any, error) {
	name, err := r.str()
	if err != nil {
		return "", nil, fmt.Errorf("variable name: %w", err)
	}
	typeCode, err := r.u32()
	if err != nil {
		return name, nil, err
	}
	flags, err := r.u32()
	if err != nil {
		return name, nil, err
	}

	count := uint32(1)
	if flags&flagArray != 0 {
		if count, err = r.arrayDesc(); err != nil {
			return name, nil, fmt.Errorf("variable %s: %w", name, err)
		}
	}

	if flags&flagStruct != 0 || typeCode == typeStruct {
		tags, err := r.structDesc()
		if err != nil {
			return name, nil, fmt.Errorf("variable %s: %w", name, err)
		}
		recs, err := r.structData(tags, count)
		if err != nil {
			return name, nil, fmt.Errorf("variable %s: %w", name, err)
		}
		return name, recs, nil
	}

	value, err := r.typedData(typeCode, count, flags&flagArray != 0)
	if err != nil {
		return name, nil, fmt.Errorf("variable %s: %w", name, err)
	}
	return name, value, nil
}

// arrayDesc reads {nbytes, nelements, ndims, dims...} and returns the
// element count.
func (r *reader) arrayDesc() (uint32, error) {
	if _, err := r.u32(); err != nil { // total byte size, unused
		return 0, err
	}
	count, err := r.u32()
	if err != nil {
		return 0, err
	}
	ndims, err := r.u32()
	if err != nil {
		return 0, err
	}
	if ndims > 8 {
		return 0, fmt.Errorf("array rank %d too large", ndims)
	}
	for i := uint32(0); i < ndims; i++ {
		if _, err := r.u32(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (r *reader) structDesc() ([]tagDesc, error) {
	ntags, err := r.u32()
	if err != nil {
		return nil, err
	}
	if ntags > 1024 {
		return nil, fmt.Errorf("structure with %d tags", ntags)
	}
	tags := make([]tagDesc, 0, ntags)
	for i := uint32(0); i < ntags; i++ {
		var t tagDesc
		if t.name, err = r.str(); err != nil {
			return nil, err
		}
		if t.typeCode, err = r.u32(); err != nil {
			return nil, err
		}
		if t.flags, err = r.u32(); err != nil {
			return nil, err
		}
		t.count = 1
		if t.flags&flagArray != 0 {
			if t.count, err = r.arrayDesc(); err != nil {
				return nil, err
			}
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (r *reader) structData(tags []tagDesc, count uint32) ([]Record, error) {
	recs := make([]Record, 0, count)
	for e := uint32(0); e < count; e++ {
		rec := make(Record, len(tags))
		for _, t := range tags {
			v, err := r.typedData(t.typeCode, t.count, t.flags&flagArray != 0)
			if err != nil {
				return nil, fmt.Errorf("tag %s: %w", t.name, err)
			}
			rec[t.name] = v
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// typedData reads count values of the given type. Scalars come back as Go
// scalars, arrays as slices. Byte arrays are stored as one padded run.
func (r *reader) typedData(typeCode, count uint32, isArray bool) (any, error) {
	switch typeCode {
	case typeByte:
		if !isArray {
			v, err := r.u32()
			return uint8(v), err
		}
		padded := int64(count+3) &^ 3
		if r.remaining() < padded {
			return nil, io.ErrUnexpectedEOF
		}
		out := make([]uint8, count)
		copy(out, r.buf[r.off:])
		r.off += padded
		return out, nil
	case typeInt:
		return readN(r, count, isArray, func() (int16, error) {
			v, err := r.i32()
			return int16(v), err
		})
	case typeLong:
		return readN(r, count, isArray, r.i32)
	case typeFloat:
		return readN(r, count, isArray, r.f32)
	case typeDouble:
		return readN(r, count, isArray, r.f64)
	case typeString:
		return readN(r, count, isArray, r.str)
	default:
		return nil, fmt.Errorf("unsupported type code %d", typeCode)
	}
}

func readN[T any](r *reader, count uint32, isArray bool, one func() (T, error)) (any, error) {
	if !isArray {
		return one()
	}
	out := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := one()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
