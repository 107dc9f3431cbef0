package models

type StageType string

const (
	StagePoolPlay  StageType = "poolPlay"
	StageCrossover StageType = "crossover"
	StagePlayoffs  StageType = "playoffs"
)

// Format is the immutable description of a tournament's stages, read from the format catalog.
type Format struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Teams  int     `json:"teams" yaml:"teams"`
	Stages []Stage `json:"stages" yaml:"stages"`
}

type Stage struct {
	Key        string    `json:"key" yaml:"key"`
	Type       StageType `json:"type" yaml:"type"`
	Name       string    `json:"name,omitempty" yaml:"name,omitempty"`
	LunchAfter bool      `json:"lunch_after,omitempty" yaml:"lunchAfter,omitempty"`

	// poolPlay
	Pools []PoolSpec `json:"pools,omitempty" yaml:"pools,omitempty"`

	// crossover
	SourceStage string          `json:"source_stage,omitempty" yaml:"sourceStage,omitempty"`
	Crossovers  []CrossoverSpec `json:"crossovers,omitempty" yaml:"crossovers,omitempty"`

	// playoffs
	SeedFrom  []string      `json:"seed_from,omitempty" yaml:"seedFrom,omitempty"`
	MaxCourts int           `json:"max_courts,omitempty" yaml:"maxCourts,omitempty"`
	Brackets  []BracketSpec `json:"brackets,omitempty" yaml:"brackets,omitempty"`
}

type PoolSpec struct {
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

// CrossoverSpec pairs equal ranks of two source pools: A(i) vs B(i).
type CrossoverSpec struct {
	Name  string   `json:"name" yaml:"name"`
	Pools []string `json:"pools" yaml:"pools"`
	Court string   `json:"court,omitempty" yaml:"court,omitempty"`
}

// BracketSpec is the raw bracket declaration; brackets.ParseShape validates Shape and Size.
type BracketSpec struct {
	Label string `json:"label" yaml:"label"`
	Shape string `json:"shape" yaml:"shape"`
	Size  int    `json:"size,omitempty" yaml:"size,omitempty"`
	// Seeds[k-1] is the upstream overall rank that fills bracket seed k.
	Seeds []int `json:"seeds" yaml:"seeds"`
}

// Stage returns the stage with the given key.
func (f *Format) Stage(key string) (*Stage, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.Stages {
		if f.Stages[i].Key == key {
			return &f.Stages[i], true
		}
	}
	return nil, false
}

// StageIndex returns the position of the stage in the format's linear order, or -1.
func (f *Format) StageIndex(key string) int {
	if f == nil {
		return -1
	}
	for i := range f.Stages {
		if f.Stages[i].Key == key {
			return i
		}
	}
	return -1
}
