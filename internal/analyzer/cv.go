package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	cvBaseScore      = 50
	cvSkillCap       = 30
	cvTitleCap       = 10
	cvEducationCap   = 10
	cvMaxScore       = 100
	cvShortTextRunes = 500
)

var experienceBonus = map[Level]int{
	LevelJunior:    5,
	LevelMid:       10,
	LevelSenior:    20,
	LevelExecutive: 15,
}

// CVAnalysis is the structured view of a CV, computed once per upload and
// reused for every scoring call.
type CVAnalysis struct {
	Skills          []string `json:"skills"`
	ExperienceLevel Level    `json:"experience_level"`
	JobTitles       []string `json:"job_titles"`
	Industries      []string `json:"industries"`
	Education       []string `json:"education"`
	Languages       []string `json:"languages"`
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Summary         string   `json:"summary"`
}

// CalculateCVScore rates CV strength from 0 to 100.
func CalculateCVScore(skills []string, experience Level, jobTitles, education []string) int {
	score := cvBaseScore
	score += min(2*len(skills), cvSkillCap)
	score += experienceBonus[experience]
	score += min(2*len(jobTitles), cvTitleCap)
	score += min(2*len(education), cvEducationCap)
	return min(score, cvMaxScore)
}

// AnalyzeCV runs every extractor over the CV text.
func (a *Analyzer) AnalyzeCV(text string) *CVAnalysis {
	cv := &CVAnalysis{
		Skills:          a.ExtractSkills(text),
		ExperienceLevel: a.DetermineExperienceLevel(text),
		JobTitles:       a.ExtractJobTitles(text),
		Industries:      a.ExtractIndustries(text),
		Education:       a.ExtractEducation(text),
		Languages:       a.ExtractLanguages(text),
	}

	cv.Score = CalculateCVScore(cv.Skills, cv.ExperienceLevel, cv.JobTitles, cv.Education)
	cv.Strengths, cv.Improvements = review(cv, text)
	cv.Summary = fmt.Sprintf("%s-level profile with %d skills across %d industries; CV strength %d/100",
		cv.ExperienceLevel, len(cv.Skills), len(cv.Industries), cv.Score)

	return cv
}

func review(cv *CVAnalysis, text string) (strengths, improvements []string) {
	strengths = make([]string, 0)
	improvements = make([]string, 0)

	if len(cv.Skills) >= 10 {
		strengths = append(strengths, "Broad technical skill set")
	} else if len(cv.Skills) < 5 {
		improvements = append(improvements, "Add more specific technical skills")
	}

	if cv.ExperienceLevel == LevelSenior || cv.ExperienceLevel == LevelExecutive {
		strengths = append(strengths, "Senior-level experience")
	}

	if len(cv.Education) > 0 {
		strengths = append(strengths, "Education and certifications listed")
	} else {
		improvements = append(improvements, "List your education and certifications")
	}

	if len(cv.Languages) > 1 {
		strengths = append(strengths, "Multilingual profile")
	}

	if len(cv.JobTitles) == 0 {
		improvements = append(improvements, "State the job titles you are targeting")
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < cvShortTextRunes {
		improvements = append(improvements, "Expand the CV with measurable achievements")
	}

	return strengths, improvements
}
