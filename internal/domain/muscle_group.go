package domain

import "strings"

// MuscleGroup is the closed set of body areas an exercise targets.
// Values are stored lowercase on the wire.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleLegs      MuscleGroup = "legs"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleCore      MuscleGroup = "core"
)

// AllMuscleGroups lists every group in display order. Derived sets
// (the profile highlight diagram) iterate this slice so their output
// order is stable.
var AllMuscleGroups = []MuscleGroup{
	MuscleChest,
	MuscleBack,
	MuscleLegs,
	MuscleShoulders,
	MuscleArms,
	MuscleCore,
}

// ParseMuscleGroup maps a raw wire value to a MuscleGroup. Unknown
// values return false so callers can drop them.
func ParseMuscleGroup(raw string) (MuscleGroup, bool) {
	g := MuscleGroup(strings.ToLower(raw))
	for _, known := range AllMuscleGroups {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// DisplayName is the capitalized human-readable label.
func (g MuscleGroup) DisplayName() string {
	if g == "" {
		return ""
	}
	return strings.ToUpper(string(g[:1])) + string(g[1:])
}
