package history

import "time"

const SchemaVersion = 1

// Run is one persisted analysis of a target.
type Run struct {
	ID            string
	Target        string
	ProjectRoot   string
	Timestamp     time.Time
	Candidates    int
	TargetFiles   int
	ExternalFiles int
	Skipped       int
	Symbols       []SymbolRecord
}

// SymbolRecord is the stored form of one public API symbol.
type SymbolRecord struct {
	Name               string
	FullyQualifiedName string
	Kind               string
	Location           string
	IsPublic           bool
	UsageCount         int
}

type UsageChange struct {
	Name   string
	Before int
	After  int
}

// Diff describes how the public API changed between two runs of the same
// target.
type Diff struct {
	PreviousID string
	PreviousAt time.Time
	Added      []SymbolRecord
	Removed    []SymbolRecord
	Changed    []UsageChange
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
