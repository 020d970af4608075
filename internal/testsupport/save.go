package testsupport

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Save-archive writer mirroring the record layout internal/decode/idlsave
// reads: big-endian records behind an "SR" signature.

const (
	saveRecVariable  = 2
	saveRecEnd       = 6
	saveRecTimestamp = 10
	saveRecVersion   = 14

	saveTypeByte   = 1
	saveTypeInt    = 2
	saveTypeLong   = 3
	saveTypeFloat  = 4
	saveTypeDouble = 5
	saveTypeString = 7
	saveTypeStruct = 8

	saveFlagArray  = 0x04
	saveFlagStruct = 0x20
)

// SaveTag is one struct member definition with its values, one per struct
// element.
type SaveTag struct {
	Name  string
	Value any // scalar or slice; slices become array tags
}

// SaveArchive describes a synthetic single-record archive.
type SaveArchive struct {
	Schema  int32
	Date    string
	User    string
	Host    string
	Structs map[string][]SaveTag // variable name -> tags of its single record
	Order   []string             // variable write order
}

type saveWriter struct {
	buf bytes.Buffer
}

func (w *saveWriter) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *saveWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	for pad := (4 - len(s)%4) % 4; pad > 0; pad-- {
		w.buf.WriteByte(0)
	}
}

// record writes one record with a correct next pointer.
func (w *saveWriter) record(recType uint32, payload func(*saveWriter)) {
	headerAt := w.buf.Len()
	w.u32(recType)
	w.u32(0) // next pointer, patched below
	w.u32(0)
	w.u32(0)
	if payload != nil {
		payload(w)
	}
	next := uint32(w.buf.Len())
	binary.BigEndian.PutUint32(w.buf.Bytes()[headerAt+4:], next)
}

func (w *saveWriter) value(v any) {
	switch x := v.(type) {
	case uint8:
		w.u32(uint32(x))
	case int16:
		w.u32(uint32(int32(x)))
	case int32:
		w.u32(uint32(x))
	case float32:
		w.u32(math.Float32bits(x))
	case float64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(x))
		w.buf.Write(b[:])
	case string:
		w.str(x)
	case []uint8:
		w.buf.Write(x)
		for pad := (4 - len(x)%4) % 4; pad > 0; pad-- {
			w.buf.WriteByte(0)
		}
	case []int16:
		for _, e := range x {
			w.u32(uint32(int32(e)))
		}
	case []int32:
		for _, e := range x {
			w.u32(uint32(e))
		}
	case []float32:
		for _, e := range x {
			w.u32(math.Float32bits(e))
		}
	case []float64:
		for _, e := range x {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], math.Float64bits(e))
			w.buf.Write(b[:])
		}
	case []string:
		for _, e := range x {
			w.str(e)
		}
	default:
		panic("unsupported save value type")
	}
}

func saveTypeOf(v any) (typeCode uint32, count uint32, isArray bool) {
	switch x := v.(type) {
	case uint8:
		return saveTypeByte, 1, false
	case int16:
		return saveTypeInt, 1, false
	case int32:
		return saveTypeLong, 1, false
	case float32:
		return saveTypeFloat, 1, false
	case float64:
		return saveTypeDouble, 1, false
	case string:
		return saveTypeString, 1, false
	case []uint8:
		return saveTypeByte, uint32(len(x)), true
	case []int16:
		return saveTypeInt, uint32(len(x)), true
	case []int32:
		return saveTypeLong, uint32(len(x)), true
	case []float32:
		return saveTypeFloat, uint32(len(x)), true
	case []float64:
		return saveTypeDouble, uint32(len(x)), true
	case []string:
		return saveTypeString, uint32(len(x)), true
	default:
		panic("unsupported save value type")
	}
}

func (w *saveWriter) arrayDesc(count uint32) {
	w.u32(0)     // total byte size, unused by the reader
	w.u32(count) // element count
	w.u32(1)     // rank
	w.u32(count) // dim 0
}

func (w *saveWriter) structVariable(name string, tags []SaveTag) {
	w.record(saveRecVariable, func(w *saveWriter) {
		w.str(name)
		w.u32(saveTypeStruct)
		w.u32(saveFlagStruct)
		w.u32(uint32(len(tags)))
		for _, tag := range tags {
			typeCode, count, isArray := saveTypeOf(tag.Value)
			w.str(tag.Name)
			w.u32(typeCode)
			if isArray {
				w.u32(saveFlagArray)
				w.arrayDesc(count)
			} else {
				w.u32(0)
			}
		}
		for _, tag := range tags {
			w.value(tag.Value)
		}
	})
}

// Render serializes the archive to bytes.
func (a SaveArchive) Render() []byte {
	w := &saveWriter{}
	w.buf.Write([]byte{'S', 'R', 0x00, 0x04})

	w.record(saveRecTimestamp, func(w *saveWriter) {
		w.str(orDefault(a.Date, "2023-01-20 12:00:00 UTC"))
		w.str(orDefault(a.User, "asi-pipeline"))
		w.str(orDefault(a.Host, "calibration-host"))
	})
	schema := a.Schema
	if schema == 0 {
		schema = 2
	}
	w.record(saveRecVersion, func(w *saveWriter) {
		w.u32(uint32(schema))
		w.str("x86_64")
		w.str("linux")
		w.str("8.8")
	})

	order := a.Order
	if order == nil {
		for name := range a.Structs {
			order = append(order, name)
		}
	}
	for _, name := range order {
		w.structVariable(name, a.Structs[name])
	}

	w.record(saveRecEnd, nil)
	return w.buf.Bytes()
}

// WriteSaveArchive renders the archive to path.
func WriteSaveArchive(t testing.TB, path string, a SaveArchive) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create archive dir: %v", err)
	}
	if err := os.WriteFile(path, a.Render(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
}

// GenerationTags returns a generation-provenance record with sane values.
func GenerationTags() []SaveTag {
	return []SaveTag{
		{Name: "AUTHOR", Value: "calibration team"},
		{Name: "DATE_GENERATED", Value: "2023-01-20 12:00:00 UTC"},
		{Name: "VALID_INTERVAL_START", Value: "2023-01-01 00:00:00 UTC"},
		{Name: "VALID_INTERVAL_STOP", Value: ""},
		{Name: "CCD_CENTER", Value: []int32{128, 128}},
		{Name: "PIXEL_ASPECT_RATIO", Value: float32(1.0)},
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
