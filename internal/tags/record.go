package tags

// TagRecord is one parsed (or ignored) metadata field: its original
// exiftool tag name, raw textual value, exiftool's declared type, and its
// description (spec §3 "exiftool_name"/"value_raw", §4.3 "Value
// normalisation"), mirroring the four-element QVariantList the original
// keeps per tag in exiftoolparser.h's TagsMap.
type TagRecord struct {
	ExiftoolName string
	ValueRaw     string
	Type         string
	Description  string
}

// ParsedSnapshot is the result of one Adapter.Load call: the source file
// path exiftool reported, the parsed tag map, and the tags whose JSON key
// shape was ignored (spec §4.3 "Key parsing", last bullet).
type ParsedSnapshot struct {
	SourceFile string
	Tags       map[string]TagRecord
	Ignored    map[string]TagRecord
}

func newParsedSnapshot() *ParsedSnapshot {
	return &ParsedSnapshot{
		Tags:    make(map[string]TagRecord),
		Ignored: make(map[string]TagRecord),
	}
}
