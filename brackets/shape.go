package brackets

import (
	"errors"
	"fmt"
)

var ErrUnknownShape = errors.New("unknown bracket shape")

const (
	ShapeSingleElimination = "singleElimination"
	ShapeSixTeamBye        = "sixTeamBye"
	ShapeFiveTeamOps       = "fiveTeamOps"
)

// Shape is one of the supported bracket topologies. The set is closed:
// SingleElimination, SixTeamBye and FiveTeamOps are the only implementations.
type Shape interface {
	Name() string
	Size() int
	isShape()
}

// SingleElimination is a power-of-two bracket of 4, 8 or 16 teams.
type SingleElimination struct {
	size int
}

func NewSingleElimination(size int) (SingleElimination, error) {
	switch size {
	case 4, 8, 16:
		return SingleElimination{size: size}, nil
	default:
		return SingleElimination{}, fmt.Errorf("%w: single elimination of %d teams", ErrUnknownShape, size)
	}
}

func (s SingleElimination) Name() string { return ShapeSingleElimination }
func (s SingleElimination) Size() int    { return s.size }
func (SingleElimination) isShape()       {}

// SixTeamBye gives seeds 1 and 2 a first-round bye.
type SixTeamBye struct{}

func (SixTeamBye) Name() string { return ShapeSixTeamBye }
func (SixTeamBye) Size() int    { return 6 }
func (SixTeamBye) isShape()     {}

// FiveTeamOps is the five-team bracket whose final takes the 2v3 winner straight from round 1.
type FiveTeamOps struct{}

func (FiveTeamOps) Name() string { return ShapeFiveTeamOps }
func (FiveTeamOps) Size() int    { return 5 }
func (FiveTeamOps) isShape()     {}

// ParseShape turns a declared shape name and size into a Shape. size is only
// read for single elimination; the fixed shapes reject a conflicting size.
func ParseShape(name string, size int) (Shape, error) {
	switch name {
	case ShapeSingleElimination:
		return NewSingleElimination(size)
	case ShapeSixTeamBye:
		if size != 0 && size != 6 {
			return nil, fmt.Errorf("%w: %s has 6 teams, got %d", ErrUnknownShape, name, size)
		}
		return SixTeamBye{}, nil
	case ShapeFiveTeamOps:
		if size != 0 && size != 5 {
			return nil, fmt.Errorf("%w: %s has 5 teams, got %d", ErrUnknownShape, name, size)
		}
		return FiveTeamOps{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
}
