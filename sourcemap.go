package sailfish

// SourceMapEntry covers one span of generated source that was copied
// verbatim from the template.
type SourceMapEntry struct {
	Original int
	New      int
	Length   int
}

// SourceMap is an ordered list of SourceMapEntry, supporting reverse
// lookup from a generated-code offset back to the originating template
// offset.
type SourceMap struct {
	entries []SourceMapEntry
}

// Push records that the generated byte range [new, new+length) was
// copied verbatim from the template byte range [original, original+length).
func (s *SourceMap) Push(original, new, length int) {
	s.entries = append(s.entries, SourceMapEntry{Original: original, New: new, Length: length})
}

// ReverseLookup returns the template offset corresponding to a generated
// offset, or false if the generated byte lies outside any recorded span.
func (s *SourceMap) ReverseLookup(offset int) (int, bool) {
	for _, e := range s.entries {
		if e.New <= offset && offset < e.New+e.Length {
			return e.Original + offset - e.New, true
		}
	}
	return 0, false
}

// Entries exposes the raw entry list, e.g. for the resolver to splice in
// a child template's map at the right offset.
func (s *SourceMap) Entries() []SourceMapEntry {
	return s.entries
}
