package yaml

import (
	"github.com/yamlkit/yaml/internal/yamlh"
)

// The pipeline error kinds, re-exported so callers can match them with
// errors.As without importing internal packages. All but ResolverError
// and EmitterError carry the Mark of the offending construct; scanner,
// parser, and composer errors also carry the mark of the enclosing
// context.
type (
	ReaderError      = yamlh.ReaderError
	ScannerError     = yamlh.ScannerError
	ParserError      = yamlh.ParserError
	ComposerError    = yamlh.ComposerError
	ConstructorError = yamlh.ConstructorError
	ResolverError    = yamlh.ResolverError
	EmitterError     = yamlh.EmitterError
)

// Canonical YAML 1.1 tags.
const (
	NullTag      = yamlh.NullTag
	BoolTag      = yamlh.BoolTag
	StrTag       = yamlh.StrTag
	IntTag       = yamlh.IntTag
	FloatTag     = yamlh.FloatTag
	TimestampTag = yamlh.TimestampTag
	SeqTag       = yamlh.SeqTag
	MapTag       = yamlh.MapTag
	SetTag       = yamlh.SetTag
	OmapTag      = yamlh.OmapTag
	PairsTag     = yamlh.PairsTag
	BinaryTag    = yamlh.BinaryTag
	MergeTag     = yamlh.MergeTag
	ValueTag     = yamlh.ValueTag
)
