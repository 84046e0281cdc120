package store

import "time"

// SymbolKind is the closed set of symbol kinds a Symbol may carry, mirroring
// the LSP SymbolKind enumeration (1..26) plus Unknown for unmapped values.
type SymbolKind string

const (
	KindFile          SymbolKind = "file"
	KindModule        SymbolKind = "module"
	KindNamespace     SymbolKind = "namespace"
	KindPackage       SymbolKind = "package"
	KindClass         SymbolKind = "class"
	KindMethod        SymbolKind = "method"
	KindProperty      SymbolKind = "property"
	KindField         SymbolKind = "field"
	KindConstructor   SymbolKind = "constructor"
	KindEnum          SymbolKind = "enum"
	KindInterface     SymbolKind = "interface"
	KindFunction      SymbolKind = "function"
	KindVariable      SymbolKind = "variable"
	KindConstant      SymbolKind = "constant"
	KindEnumMember    SymbolKind = "enum_member"
	KindStruct        SymbolKind = "struct"
	KindEvent         SymbolKind = "event"
	KindOperator      SymbolKind = "operator"
	KindTypeParameter SymbolKind = "type_parameter"
	KindUnknown       SymbolKind = "unknown"
)

// lspSymbolKind maps the LSP SymbolKind integer codes (1-26) to the closed
// Kind set above. Unrecognized codes map to KindUnknown.
var lspSymbolKind = map[int]SymbolKind{
	1:  KindFile,
	2:  KindModule,
	3:  KindNamespace,
	4:  KindPackage,
	5:  KindClass,
	6:  KindMethod,
	7:  KindProperty,
	8:  KindField,
	9:  KindConstructor,
	10: KindEnum,
	11: KindInterface,
	12: KindFunction,
	13: KindVariable,
	14: KindConstant,
	15: KindStruct, // String in raw LSP, but unused by this mapping's sources
	16: KindVariable,
	17: KindStruct,
	18: KindInterface,
	19: KindModule,
	20: KindEnumMember,
	21: KindConstructor,
	22: KindEnumMember,
	23: KindStruct,
	24: KindEvent,
	25: KindOperator,
	26: KindTypeParameter,
}

// SymbolKindFromLSP converts a raw LSP SymbolKind integer into the closed
// Kind set. Out-of-range values map to KindUnknown.
func SymbolKindFromLSP(n int) SymbolKind {
	if k, ok := lspSymbolKind[n]; ok {
		return k
	}
	return KindUnknown
}

// Language is the closed set of detected languages.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangJava       Language = "java"
	LangPHP        Language = "php"
)

// Project is the identity of an indexed root.
type Project struct {
	ID        string
	Path      string
	Name      string
	Language  Language
	Languages []Language
	GitRemote string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileRecord tracks one source file under a Project.
type FileRecord struct {
	ID           int64
	ProjectID    string
	Path         string
	Size         int64
	Hash         string
	Language     Language
	IsEntrypoint bool
	LastAnalyzed time.Time
}

// Symbol is a named, ranged entity within a file.
type Symbol struct {
	ID         int64
	FileID     int64
	Name       string
	Kind       SymbolKind
	Detail     string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	ParentID   *int64
	IsExported bool
}

// Embedding associates a symbol with a dense keyword-frequency vector.
type Embedding struct {
	FilePath    string
	SymbolName  string
	SymbolKind  SymbolKind
	Description string
	CodeSnippet string
	Vector      []float32
}

// TaskType is the closed set of task categories.
type TaskType string

const (
	TaskFeature  TaskType = "feature"
	TaskBug      TaskType = "bug"
	TaskTest     TaskType = "test"
	TaskRefactor TaskType = "refactor"
	TaskDoc      TaskType = "doc"
)

// TaskStatus is the closed set of task lifecycle states.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusReady      TaskStatus = "ready"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusFailed     TaskStatus = "failed"
	StatusDone       TaskStatus = "done"
	StatusCancelled  TaskStatus = "cancelled"
)

// TaskComplexity is the closed set of complexity buckets.
type TaskComplexity string

const (
	ComplexityTrivial  TaskComplexity = "trivial"
	ComplexitySimple   TaskComplexity = "simple"
	ComplexityModerate TaskComplexity = "moderate"
	ComplexityComplex  TaskComplexity = "complex"
)

// Task is a unit of scheduled work.
type Task struct {
	ID              string
	ParentID        string
	Title           string
	Description     string
	Type            TaskType
	Status          TaskStatus
	Priority        int
	Complexity      TaskComplexity
	EstimatedEffort int // minutes
	ActualEffort    int // minutes
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	TestRequired    bool
	Metadata        map[string]any
}

// DependencyType is the closed set of dependency edge kinds. Only Blocks
// gates readiness; the others are informational.
type DependencyType string

const (
	DepBlocks    DependencyType = "blocks"
	DepSuggests  DependencyType = "suggests"
	DepRelatesTo DependencyType = "relates_to"
)

// Dependency is a directed edge among tasks.
type Dependency struct {
	TaskID    string
	DependsOn string
	Type      DependencyType
}

// TaskEvent is an append-only audit record.
type TaskEvent struct {
	ID        int64
	TaskID    string
	EventType string
	Message   string
	Timestamp time.Time
	Metadata  map[string]any
}

// SearchHistoryEntry records a single semantic-retrieval query for stats().
type SearchHistoryEntry struct {
	ID        int64
	Query     string
	Results   int
	Timestamp time.Time
}
