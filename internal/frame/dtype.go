package frame

// DType identifies the numeric element type of a tensor.
type DType int

const (
	DTypeUnknown DType = iota
	DTypeUint8
	DTypeUint16
	DTypeUint32
	DTypeFloat32
	DTypeFloat64
)

// Size returns the element width in bytes, or 0 for DTypeUnknown.
func (d DType) Size() int {
	switch d {
	case DTypeUint8:
		return 1
	case DTypeUint16:
		return 2
	case DTypeUint32, DTypeFloat32:
		return 4
	case DTypeFloat64:
		return 8
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case DTypeUint8:
		return "uint8"
	case DTypeUint16:
		return "uint16"
	case DTypeUint32:
		return "uint32"
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	default:
		return "unknown"
	}
}
