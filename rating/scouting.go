package rating

import (
	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// ReconcileScouting merges a secondary scouting source into the primary
// map. Secondary profiles whose player IDs already exist in the primary
// are ignored; the rest are matched by normalized name so exports from
// different systems can disagree on IDs, suffixes, and punctuation.
// Unmatched secondary profiles are returned so callers can log them.
func ReconcileScouting(
	primary map[string]*models.ScoutingProfile,
	secondary []*models.ScoutingProfile,
	nameToID map[string]string,
) (merged map[string]*models.ScoutingProfile, unmatched []*models.ScoutingProfile) {
	merged = make(map[string]*models.ScoutingProfile, len(primary)+len(secondary))
	for id, prof := range primary {
		merged[id] = prof
	}

	for _, prof := range secondary {
		if prof == nil {
			continue
		}
		if prof.PlayerID != "" {
			if _, ok := merged[prof.PlayerID]; ok {
				continue
			}
		}

		id := prof.PlayerID
		if id == "" {
			id = nameToID[models.NormalizeName(prof.Name)]
		}
		if id == "" {
			unmatched = append(unmatched, prof)
			continue
		}
		if _, ok := merged[id]; ok {
			continue
		}
		p := *prof
		p.PlayerID = id
		merged[id] = &p
	}

	return merged, unmatched
}

// NameIndex builds a normalized-name to player-ID index from roster
// entries. Duplicate normalized names keep the first ID seen and are
// reported so callers know which names are ambiguous.
func NameIndex(roster map[string]rosterEntry) (index map[string]string, collisions []string) {
	index = make(map[string]string, len(roster))
	for id, entry := range roster {
		key := models.NormalizeName(entry.Name)
		if key == "" {
			continue
		}
		if _, ok := index[key]; ok {
			collisions = append(collisions, entry.Name)
			continue
		}
		index[key] = id
	}
	return index, collisions
}
