package game

import (
	"fmt"
	"strings"
)

// CreatureType is the closed set of elemental categories. Species and skills
// reference types by name in config and in the database; parsing happens once
// at construction so the battle engine never sees an unknown type.
type CreatureType string

const (
	TypeFire     CreatureType = "fire"
	TypeWater    CreatureType = "water"
	TypeGrass    CreatureType = "grass"
	TypeElectric CreatureType = "electric"
	TypePsychic  CreatureType = "psychic"
	TypeIce      CreatureType = "ice"
	TypeDragon   CreatureType = "dragon"
	TypeDark     CreatureType = "dark"
	TypeFairy    CreatureType = "fairy"
	TypeSteel    CreatureType = "steel"
	TypeRock     CreatureType = "rock"
	TypeGhost    CreatureType = "ghost"
)

// AllTypes lists every valid creature type.
var AllTypes = []CreatureType{
	TypeFire, TypeWater, TypeGrass, TypeElectric, TypePsychic, TypeIce,
	TypeDragon, TypeDark, TypeFairy, TypeSteel, TypeRock, TypeGhost,
}

// ParseType normalizes and validates a type name.
func ParseType(s string) (CreatureType, error) {
	t := CreatureType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown creature type %q", s)
}
