// Package pgmstream decodes stream-of-frames PGM files: many binary PGM
// images concatenated into one file, each preceded by a comment block
// holding that frame's metadata. Streams are usually gzip- or
// bzip2-compressed on disk; decompression is transparent based on the file
// extension.
package pgmstream
