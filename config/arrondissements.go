package config

// ParisDepartmentPrefix is the leading part of every Paris arrondissement
// INSEE code (75101 … 75120).
const ParisDepartmentPrefix = "751"

// Approximate centres of the 20 Paris arrondissements.
var arrondissementCenters = map[int][2]float64{
	1:  {48.8602, 2.3477},
	2:  {48.8687, 2.3441},
	3:  {48.8637, 2.3615},
	4:  {48.8543, 2.3572},
	5:  {48.8449, 2.3497},
	6:  {48.8499, 2.3331},
	7:  {48.8566, 2.3126},
	8:  {48.8763, 2.3106},
	9:  {48.8772, 2.3378},
	10: {48.8762, 2.3598},
	11: {48.8592, 2.3806},
	12: {48.8399, 2.3876},
	13: {48.8322, 2.3561},
	14: {48.8286, 2.3269},
	15: {48.8421, 2.2988},
	16: {48.8637, 2.2769},
	17: {48.8875, 2.3133},
	18: {48.8925, 2.3444},
	19: {48.8867, 2.3802},
	20: {48.8638, 2.3985},
}

// Centre of Paris, used when the arrondissement number is unknown.
var parisCenter = [2]float64{48.8566, 2.3522}

// ArrondissementCenter returns the centre coordinates of an arrondissement,
// falling back to the city centre for unknown numbers.
func ArrondissementCenter(arrondissement int) (lat, lon float64) {
	if c, ok := arrondissementCenters[arrondissement]; ok {
		return c[0], c[1]
	}
	return parisCenter[0], parisCenter[1]
}
