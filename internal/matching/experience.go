package matching

import "strings"

type yearRange struct {
	min, max int
}

// experienceYears maps a seniority label to the years it usually implies.
var experienceYears = map[string]yearRange{
	"entry":     {0, 2},
	"mid":       {2, 5},
	"senior":    {5, 10},
	"lead":      {7, 15},
	"executive": {10, 40},
}

var experienceAliases = map[string]string{
	"junior": "entry",
}

// experienceTolerance lets candidates slightly above a level's range apply.
const experienceTolerance = 2

func lookupExperience(label string) (yearRange, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if alias, ok := experienceAliases[key]; ok {
		key = alias
	}
	r, ok := experienceYears[key]
	return r, ok
}

// experienceMatches is permissive: an unknown or missing label on either side
// counts as a match.
func experienceMatches(jobLevel, candidateLevel string, years int) bool {
	want, ok := lookupExperience(jobLevel)
	if !ok {
		return true
	}

	if years > 0 && years >= want.min && years <= want.max+experienceTolerance {
		return true
	}

	have, ok := lookupExperience(candidateLevel)
	if !ok {
		return true
	}

	return have.min <= want.max && want.min <= have.max
}
