package game

// typeChart stores the attack-type vs defense-type multiplier for every pair.
// The chart is intentionally asymmetric (fire→grass is 2 while grass→fire is
// 0.5), so both directions are stored explicitly. Pairs absent from the chart
// resolve to 1 (neutral).
var typeChart = map[CreatureType]map[CreatureType]float64{
	TypeFire:     {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeElectric: 1, TypePsychic: 1, TypeIce: 2, TypeDragon: 0.5, TypeDark: 1, TypeFairy: 1, TypeSteel: 2, TypeRock: 0.5, TypeGhost: 1},
	TypeWater:    {TypeFire: 2, TypeWater: 0.5, TypeGrass: 0.5, TypeElectric: 1, TypePsychic: 1, TypeIce: 1, TypeDragon: 0.5, TypeDark: 1, TypeFairy: 1, TypeSteel: 1, TypeRock: 2, TypeGhost: 1},
	TypeGrass:    {TypeFire: 0.5, TypeWater: 2, TypeGrass: 0.5, TypeElectric: 1, TypePsychic: 1, TypeIce: 1, TypeDragon: 0.5, TypeDark: 1, TypeFairy: 1, TypeSteel: 0.5, TypeRock: 2, TypeGhost: 1},
	TypeElectric: {TypeFire: 1, TypeWater: 2, TypeGrass: 0.5, TypeElectric: 0.5, TypePsychic: 1, TypeIce: 1, TypeDragon: 0.5, TypeDark: 1, TypeFairy: 1, TypeSteel: 1, TypeRock: 1, TypeGhost: 1},
	TypePsychic:  {TypeFire: 1, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 0.5, TypeIce: 1, TypeDragon: 1, TypeDark: 0, TypeFairy: 1, TypeSteel: 0.5, TypeRock: 1, TypeGhost: 1},
	TypeIce:      {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeElectric: 1, TypePsychic: 1, TypeIce: 0.5, TypeDragon: 2, TypeDark: 1, TypeFairy: 1, TypeSteel: 0.5, TypeRock: 1, TypeGhost: 1},
	TypeDragon:   {TypeFire: 1, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 1, TypeIce: 1, TypeDragon: 2, TypeDark: 1, TypeFairy: 0, TypeSteel: 0.5, TypeRock: 1, TypeGhost: 1},
	TypeDark:     {TypeFire: 1, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 2, TypeIce: 1, TypeDragon: 1, TypeDark: 0.5, TypeFairy: 0.5, TypeSteel: 1, TypeRock: 1, TypeGhost: 2},
	TypeFairy:    {TypeFire: 0.5, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 1, TypeIce: 1, TypeDragon: 2, TypeDark: 2, TypeFairy: 1, TypeSteel: 0.5, TypeRock: 1, TypeGhost: 1},
	TypeSteel:    {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 1, TypeElectric: 0.5, TypePsychic: 1, TypeIce: 2, TypeDragon: 1, TypeDark: 1, TypeFairy: 2, TypeSteel: 0.5, TypeRock: 2, TypeGhost: 1},
	TypeRock:     {TypeFire: 2, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 1, TypeIce: 2, TypeDragon: 1, TypeDark: 1, TypeFairy: 1, TypeSteel: 0.5, TypeRock: 1, TypeGhost: 1},
	TypeGhost:    {TypeFire: 1, TypeWater: 1, TypeGrass: 1, TypeElectric: 1, TypePsychic: 2, TypeIce: 1, TypeDragon: 1, TypeDark: 0.5, TypeFairy: 1, TypeSteel: 1, TypeRock: 1, TypeGhost: 2},
}

// Effectiveness returns the damage multiplier for an attack of type attacker
// against a defender of type defender. Unknown pairs are neutral.
func Effectiveness(attacker, defender CreatureType) float64 {
	row, ok := typeChart[attacker]
	if !ok {
		return 1
	}
	mult, ok := row[defender]
	if !ok {
		return 1
	}
	return mult
}
