package formats

import (
	"fmt"
	"strings"

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/models"
)

// Validate checks a format for everything the schedule engine relies on.
// Every returned error wraps ErrInvalidFormat.
func Validate(f *models.Format) error {
	if f == nil {
		return invalid("nil format")
	}
	if strings.TrimSpace(f.ID) == "" {
		return invalid("format id is required")
	}

	stageTypes := make(map[string]models.StageType, len(f.Stages))
	poolSizes := make(map[string]map[string]int)
	total := 0

	for i := range f.Stages {
		stage := &f.Stages[i]
		if stage.Key == "" || strings.ContainsAny(stage.Key, ":/") {
			return invalid("stage %d: key %q must be non-empty without ':' or '/'", i+1, stage.Key)
		}
		if _, dup := stageTypes[stage.Key]; dup {
			return invalid("duplicate stage key %q", stage.Key)
		}

		switch stage.Type {
		case models.StagePoolPlay:
			if len(poolSizes) > 0 {
				return invalid("stage %s: only one pool play stage is supported", stage.Key)
			}
			sizes, err := validatePools(stage)
			if err != nil {
				return err
			}
			poolSizes[stage.Key] = sizes
			n := 0
			for _, size := range sizes {
				n += size
			}
			total += n

		case models.StageCrossover:
			if err := validateCrossover(stage, stageTypes, poolSizes); err != nil {
				return err
			}

		case models.StagePlayoffs:
			if err := validatePlayoffs(stage, stageTypes, total); err != nil {
				return err
			}

		default:
			return invalid("stage %s: unknown type %q", stage.Key, stage.Type)
		}
		stageTypes[stage.Key] = stage.Type
	}

	if f.Teams > 0 && total > 0 && f.Teams != total {
		return invalid("format declares %d teams but its pools hold %d", f.Teams, total)
	}
	return nil
}

func validatePools(stage *models.Stage) (map[string]int, error) {
	if len(stage.Pools) == 0 {
		return nil, invalid("stage %s: pool play without pools", stage.Key)
	}
	sizes := make(map[string]int, len(stage.Pools))
	for _, p := range stage.Pools {
		if p.Name == "" || strings.ContainsAny(p.Name, ":/") {
			return nil, invalid("stage %s: pool name %q must be non-empty without ':' or '/'", stage.Key, p.Name)
		}
		if _, dup := sizes[p.Name]; dup {
			return nil, invalid("stage %s: duplicate pool %q", stage.Key, p.Name)
		}
		if _, err := brackets.RoundRobinTemplate(p.Size); err != nil {
			return nil, fmt.Errorf("%w: stage %s pool %s: %w", ErrInvalidFormat, stage.Key, p.Name, err)
		}
		sizes[p.Name] = p.Size
	}
	return sizes, nil
}

func validateCrossover(stage *models.Stage, earlier map[string]models.StageType, poolSizes map[string]map[string]int) error {
	if earlier[stage.SourceStage] != models.StagePoolPlay {
		return invalid("stage %s: source stage %q is not an earlier pool play stage", stage.Key, stage.SourceStage)
	}
	if len(stage.Crossovers) == 0 {
		return invalid("stage %s: crossover without pairings", stage.Key)
	}
	pools := poolSizes[stage.SourceStage]
	names := make(map[string]bool, len(stage.Crossovers))
	for _, x := range stage.Crossovers {
		if x.Name == "" || strings.ContainsAny(x.Name, ":/") || names[x.Name] {
			return invalid("stage %s: crossover name %q must be unique, non-empty, without ':' or '/'", stage.Key, x.Name)
		}
		names[x.Name] = true
		if len(x.Pools) != 2 || x.Pools[0] == x.Pools[1] {
			return invalid("stage %s crossover %s: needs two distinct source pools", stage.Key, x.Name)
		}
		for _, p := range x.Pools {
			if _, ok := pools[p]; !ok {
				return invalid("stage %s crossover %s: unknown pool %q in %s", stage.Key, x.Name, p, stage.SourceStage)
			}
		}
	}
	return nil
}

func validatePlayoffs(stage *models.Stage, earlier map[string]models.StageType, total int) error {
	if len(stage.SeedFrom) == 0 {
		return invalid("stage %s: playoffs need seedFrom", stage.Key)
	}
	for _, key := range stage.SeedFrom {
		t, ok := earlier[key]
		if !ok || t == models.StagePlayoffs {
			return invalid("stage %s: seedFrom %q is not an earlier pool play or crossover stage", stage.Key, key)
		}
	}
	if stage.MaxCourts < 0 {
		return invalid("stage %s: maxCourts must not be negative", stage.Key)
	}

	defs, err := Definitions(stage)
	if err != nil {
		return err
	}
	labels := make(map[string]bool, len(defs))
	seeds := make(map[int]string)
	for i, def := range defs {
		spec := stage.Brackets[i]
		if def.Label == "" || strings.ContainsAny(def.Label, ":/") || labels[def.Label] {
			return invalid("stage %s: bracket label %q must be unique, non-empty, without ':' or '/'", stage.Key, def.Label)
		}
		labels[def.Label] = true
		if len(spec.Seeds) != def.Shape.Size() {
			return invalid("stage %s bracket %s: %s takes %d seeds, got %d", stage.Key, def.Label, def.Shape.Name(), def.Shape.Size(), len(spec.Seeds))
		}
		for _, rank := range spec.Seeds {
			if rank < 1 || (total > 0 && rank > total) {
				return invalid("stage %s bracket %s: seed rank %d outside 1..%d", stage.Key, def.Label, rank, total)
			}
			if other, dup := seeds[rank]; dup {
				return invalid("stage %s: overall rank %d seeds both %s and %s", stage.Key, rank, other, def.Label)
			}
			seeds[rank] = def.Label
		}
	}
	return nil
}
