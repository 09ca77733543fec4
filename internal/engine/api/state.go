package api

import "strings"

// FileState is the scratch state of one external file scan. It is owned by
// the goroutine scanning that file and discarded afterwards.
type FileState struct {
	processed map[string]struct{}
	aliases   map[string]string
	imported  map[string]struct{}
}

func NewFileState() *FileState {
	return &FileState{
		processed: make(map[string]struct{}),
		aliases:   make(map[string]string),
		imported:  make(map[string]struct{}),
	}
}

func (s *FileState) IsProcessed(name string) bool {
	_, ok := s.processed[name]
	return ok
}

func (s *FileState) MarkProcessed(name string) {
	s.processed[name] = struct{}{}
}

func (s *FileState) RegisterAlias(alias, module string) {
	s.aliases[alias] = module
}

// ResolveModule maps a dotted name used in code to the module it refers
// to. The full text is looked up first; otherwise the first segment is
// resolved and the remaining segments are appended.
func (s *FileState) ResolveModule(dotted string) (string, bool) {
	if m, ok := s.aliases[dotted]; ok {
		return m, true
	}
	head, rest, found := strings.Cut(dotted, ".")
	if !found {
		return "", false
	}
	m, ok := s.aliases[head]
	if !ok {
		return "", false
	}
	return m + "." + rest, true
}

func (s *FileState) RegisterImported(name string) {
	s.imported[name] = struct{}{}
}

func (s *FileState) IsImported(name string) bool {
	_, ok := s.imported[name]
	return ok
}
