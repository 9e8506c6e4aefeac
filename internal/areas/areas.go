// Package areas canonicalizes area names onto registry area codes and
// carries the curated market benchmark table. The land registry and the
// listing portals use different names for the same community (for example
// "Al Barsha South 4" is marketed as "Jumeirah Village Circle"), so every
// lookup goes through ResolveAreaCode first.
package areas

import (
	"math"
	"strings"
)

// Profile is the curated market benchmark for one area code. Rates are in
// AED per square foot; unit sizes in square feet; rents per square foot
// per year.
type Profile struct {
	AreaCode        string
	CommunityName   string
	RegistryName    string
	UnitPsf         map[string]float64
	UnitSizes       map[string]float64
	UnitRents       map[string]float64
	ConstructionPsf float64
	LandCostPsf     float64
	MarketFloor     float64
	MarketAvg       float64
	MarketCeiling   float64
	Lat             float64
	Lng             float64
}

var profiles = map[string]Profile{
	"621": {
		AreaCode:        "621",
		CommunityName:   "Jumeirah Village Circle",
		RegistryName:    "Al Barsha South 4",
		UnitPsf:         map[string]float64{"studio": 1050, "1br": 1000, "2br": 950, "3br": 900},
		UnitSizes:       map[string]float64{"studio": 450, "1br": 750, "2br": 1100, "3br": 1550},
		UnitRents:       map[string]float64{"studio": 95, "1br": 85, "2br": 75, "3br": 68},
		ConstructionPsf: 420,
		LandCostPsf:     185,
		MarketFloor:     850,
		MarketAvg:       975,
		MarketCeiling:   1250,
		Lat:             25.0602, Lng: 55.2094,
	},
	"619": {
		AreaCode:        "619",
		CommunityName:   "Arjan",
		RegistryName:    "Al Barsha South 3",
		UnitPsf:         map[string]float64{"studio": 980, "1br": 930, "2br": 880, "3br": 840},
		UnitSizes:       map[string]float64{"studio": 430, "1br": 720, "2br": 1080, "3br": 1500},
		UnitRents:       map[string]float64{"studio": 88, "1br": 78, "2br": 68, "3br": 62},
		ConstructionPsf: 410,
		LandCostPsf:     160,
		MarketFloor:     800,
		MarketAvg:       910,
		MarketCeiling:   1150,
		Lat:             25.0587, Lng: 55.2362,
	},
	"622": {
		AreaCode:        "622",
		CommunityName:   "Jumeirah Village Triangle",
		RegistryName:    "Al Barsha South 2",
		UnitPsf:         map[string]float64{"studio": 1000, "1br": 960, "2br": 910, "3br": 870},
		UnitSizes:       map[string]float64{"studio": 440, "1br": 740, "2br": 1090, "3br": 1520},
		UnitRents:       map[string]float64{"studio": 90, "1br": 80, "2br": 71, "3br": 64},
		ConstructionPsf: 415,
		LandCostPsf:     170,
		MarketFloor:     820,
		MarketAvg:       935,
		MarketCeiling:   1180,
		Lat:             25.0481, Lng: 55.1882,
	},
	"392": {
		AreaCode:        "392",
		CommunityName:   "Dubai Marina",
		RegistryName:    "Marsa Dubai",
		UnitPsf:         map[string]float64{"studio": 1750, "1br": 1650, "2br": 1550, "3br": 1500},
		UnitSizes:       map[string]float64{"studio": 480, "1br": 800, "2br": 1250, "3br": 1800},
		UnitRents:       map[string]float64{"studio": 130, "1br": 118, "2br": 105, "3br": 95},
		ConstructionPsf: 520,
		LandCostPsf:     650,
		MarketFloor:     1400,
		MarketAvg:       1600,
		MarketCeiling:   2100,
		Lat:             25.0805, Lng: 55.1403,
	},
	"346": {
		AreaCode:        "346",
		CommunityName:   "Business Bay",
		RegistryName:    "Business Bay",
		UnitPsf:         map[string]float64{"studio": 1600, "1br": 1500, "2br": 1420, "3br": 1380},
		UnitSizes:       map[string]float64{"studio": 460, "1br": 780, "2br": 1200, "3br": 1700},
		UnitRents:       map[string]float64{"studio": 120, "1br": 108, "2br": 96, "3br": 88},
		ConstructionPsf: 500,
		LandCostPsf:     560,
		MarketFloor:     1300,
		MarketAvg:       1475,
		MarketCeiling:   1950,
		Lat:             25.1850, Lng: 55.2650,
	},
	"717": {
		AreaCode:        "717",
		CommunityName:   "Dubai South",
		RegistryName:    "Madinat Al Mataar",
		UnitPsf:         map[string]float64{"studio": 820, "1br": 780, "2br": 740, "3br": 710},
		UnitSizes:       map[string]float64{"studio": 420, "1br": 710, "2br": 1060, "3br": 1480},
		UnitRents:       map[string]float64{"studio": 72, "1br": 64, "2br": 56, "3br": 50},
		ConstructionPsf: 395,
		LandCostPsf:     95,
		MarketFloor:     680,
		MarketAvg:       765,
		MarketCeiling:   950,
		Lat:             24.8966, Lng: 55.1569,
	},
	"458": {
		AreaCode:        "458",
		CommunityName:   "Meydan",
		RegistryName:    "Nadd Al Sheba 1",
		UnitPsf:         map[string]float64{"studio": 1350, "1br": 1280, "2br": 1220, "3br": 1180},
		UnitSizes:       map[string]float64{"studio": 460, "1br": 770, "2br": 1150, "3br": 1650},
		UnitRents:       map[string]float64{"studio": 105, "1br": 95, "2br": 84, "3br": 76},
		ConstructionPsf: 470,
		LandCostPsf:     380,
		MarketFloor:     1100,
		MarketAvg:       1255,
		MarketCeiling:   1600,
		Lat:             25.1558, Lng: 55.3034,
	},
	"598": {
		AreaCode:        "598",
		CommunityName:   "Al Furjan",
		RegistryName:    "Jebel Ali First",
		UnitPsf:         map[string]float64{"studio": 1020, "1br": 970, "2br": 920, "3br": 880},
		UnitSizes:       map[string]float64{"studio": 440, "1br": 760, "2br": 1120, "3br": 1580},
		UnitRents:       map[string]float64{"studio": 92, "1br": 82, "2br": 72, "3br": 65},
		ConstructionPsf: 420,
		LandCostPsf:     190,
		MarketFloor:     840,
		MarketAvg:       950,
		MarketCeiling:   1200,
		Lat:             25.0262, Lng: 55.1443,
	},
	"685": {
		AreaCode:        "685",
		CommunityName:   "Dubailand Residence Complex",
		RegistryName:    "Wadi Al Safa 5",
		UnitPsf:         map[string]float64{"studio": 760, "1br": 720, "2br": 690, "3br": 660},
		UnitSizes:       map[string]float64{"studio": 410, "1br": 700, "2br": 1040, "3br": 1450},
		UnitRents:       map[string]float64{"studio": 65, "1br": 58, "2br": 51, "3br": 46},
		ConstructionPsf: 385,
		LandCostPsf:     80,
		MarketFloor:     620,
		MarketAvg:       710,
		MarketCeiling:   880,
		Lat:             25.0566, Lng: 55.3433,
	},
}

var aliases = map[string]string{
	"jumeirah village circle":     "621",
	"jvc":                         "621",
	"al barsha south 4":           "621",
	"al barsha south fourth":      "621",
	"arjan":                       "619",
	"al barsha south 3":           "619",
	"al barsha south third":       "619",
	"jumeirah village triangle":   "622",
	"jvt":                         "622",
	"al barsha south 2":           "622",
	"dubai marina":                "392",
	"marsa dubai":                 "392",
	"business bay":                "346",
	"dubai south":                 "717",
	"madinat al mataar":           "717",
	"dubai world central":         "717",
	"meydan":                      "458",
	"nadd al sheba 1":             "458",
	"nadd al sheba":               "458",
	"al furjan":                   "598",
	"furjan":                      "598",
	"jebel ali first":             "598",
	"dubailand residence complex": "685",
	"dubailand":                   "685",
	"wadi al safa 5":              "685",
}

// NormalizeName collapses whitespace and punctuation so registry spellings
// and portal spellings compare equal.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer("-", " ", ",", " ", ".", " ", "(", " ", ")", " ")
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ResolveAreaCode maps any known spelling of an area name to its area code.
func ResolveAreaCode(name string) (string, bool) {
	n := NormalizeName(name)
	if n == "" {
		return "", false
	}
	code, ok := aliases[n]
	return code, ok
}

// ProfileFor returns the curated benchmark for an exact area code.
func ProfileFor(code string) (Profile, bool) {
	p, ok := profiles[strings.TrimSpace(code)]
	return p, ok
}

// KnownAreaName reports whether a free-text token sequence names an area we
// can resolve. Used by the free-form parcel parser.
func KnownAreaName(name string) bool {
	_, ok := ResolveAreaCode(name)
	return ok
}

// NearestProfile returns the curated profile whose centroid is closest to
// the given coordinates. Used as the anchor when no exact area-code match
// exists; callers must surface the result as an approximation.
func NearestProfile(lat, lng float64) (Profile, bool) {
	best := Profile{}
	bestDist := math.MaxFloat64
	found := false
	for _, p := range profiles {
		d := haversineKm(lat, lng, p.Lat, p.Lng)
		if d < bestDist {
			best = p
			bestDist = d
			found = true
		}
	}
	return best, found
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
