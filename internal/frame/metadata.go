package frame

// Metadata is one frame's key/value record. Values are scalars or small
// arrays as produced by the on-disk format (strings for PGM comment blocks,
// typed values for container attributes).
type Metadata map[string]any

// String returns the value for key rendered as a string, when the value is
// string-shaped. Array values and missing keys report ok=false.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy so per-file attributes can be shared across
// frames without later writes bleeding between records.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
