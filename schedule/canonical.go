package schedule

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/volley-tournament/models"
)

// Canonical encodes slots independently of their order: slots by id, byes by
// label then team. The hash is the hex sha256 of the document.
func Canonical(slots []models.Slot) ([]byte, string, error) {
	sorted := make([]models.Slot, len(slots))
	copy(sorted, slots)
	for i := range sorted {
		if len(sorted[i].Byes) > 1 {
			byes := make([]models.ParticipantRef, len(sorted[i].Byes))
			copy(byes, sorted[i].Byes)
			sort.SliceStable(byes, func(a, b int) bool {
				if la, lb := byes[a].Label(), byes[b].Label(); la != lb {
					return la < lb
				}
				return byes[a].TeamID < byes[b].TeamID
			})
			sorted[i].Byes = byes
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	doc, err := json.Marshal(sorted)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding schedule plan: %w", err)
	}
	sum := sha256.Sum256(doc)
	return doc, hex.EncodeToString(sum[:]), nil
}

// NewPlan builds the storable plan of a tournament.
func NewPlan(tournamentID string, slots []models.Slot, now time.Time) (*models.SchedulePlan, error) {
	doc, hash, err := Canonical(slots)
	if err != nil {
		return nil, err
	}
	return &models.SchedulePlan{
		TournamentID: tournamentID,
		Hash:         hash,
		Document:     doc,
		Slots:        slots,
		UpdatedAt:    now,
	}, nil
}

// DecodePlan restores the slots of a stored plan document.
func DecodePlan(doc []byte) ([]models.Slot, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	var slots []models.Slot
	if err := json.Unmarshal(doc, &slots); err != nil {
		return nil, fmt.Errorf("error decoding schedule plan: %w", err)
	}
	return slots, nil
}

// ChangedSlots lists the ids of slots added, removed or modified between two plans.
func ChangedSlots(prev, next []models.Slot) ([]string, error) {
	encode := func(slots []models.Slot) (map[string][]byte, error) {
		out := make(map[string][]byte, len(slots))
		for _, s := range slots {
			doc, _, err := Canonical([]models.Slot{s})
			if err != nil {
				return nil, err
			}
			out[s.ID] = doc
		}
		return out, nil
	}
	before, err := encode(prev)
	if err != nil {
		return nil, err
	}
	after, err := encode(next)
	if err != nil {
		return nil, err
	}

	var changed []string
	for id, doc := range after {
		if old, ok := before[id]; !ok || !bytes.Equal(old, doc) {
			changed = append(changed, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed, nil
}
