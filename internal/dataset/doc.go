// Package dataset maps dataset names to their decoder and assembler and
// exposes the read entry points callers use. The registry is a static
// table built once at process start; lookups are exact key matches, never
// discovery over live state.
package dataset
