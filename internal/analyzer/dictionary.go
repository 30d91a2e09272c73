package analyzer

// Level is an experience level bucket detected from free text.
type Level string

const (
	LevelJunior    Level = "junior"
	LevelMid       Level = "mid"
	LevelSenior    Level = "senior"
	LevelExecutive Level = "executive"
)

// Levels lists the buckets in the order they are reported.
var Levels = []Level{LevelJunior, LevelMid, LevelSenior, LevelExecutive}

// Category groups synonyms under a canonical name.
type Category struct {
	Name     string   `mapstructure:"name" json:"name"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// Dictionary holds every keyword table used by the Analyzer.
// Slices keep their order so extraction output is stable between runs.
type Dictionary struct {
	Skills             []Category          `mapstructure:"skills" json:"skills"`
	JobTitles          []Category          `mapstructure:"job-titles" json:"job_titles"`
	Industries         []Category          `mapstructure:"industries" json:"industries"`
	Experience         map[Level][]string  `mapstructure:"experience" json:"experience"`
	Education          []string            `mapstructure:"education" json:"education"`
	Languages          []string            `mapstructure:"languages" json:"languages"`
	LanguageIndicators map[string][]string `mapstructure:"language-indicators" json:"language_indicators"`
}

// Detected text languages in tie-break priority order.
const (
	LanguageFrench  = "french"
	LanguageSpanish = "spanish"
	LanguageGerman  = "german"
	LanguageEnglish = "english"
)

var languagePriority = []string{LanguageFrench, LanguageSpanish, LanguageGerman, LanguageEnglish}

// DefaultDictionary returns a fresh copy of the built-in keyword tables.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		Skills: []Category{
			{Name: "javascript", Keywords: []string{"javascript", "js", "react", "node.js", "nodejs", "vue", "angular", "next.js", "express"}},
			{Name: "typescript", Keywords: []string{"typescript", "ts-node", "deno"}},
			{Name: "python", Keywords: []string{"python", "django", "flask", "fastapi", "pandas", "numpy"}},
			{Name: "java", Keywords: []string{"java", "spring", "hibernate", "maven", "gradle"}},
			{Name: "kotlin", Keywords: []string{"kotlin", "ktor"}},
			{Name: "golang", Keywords: []string{"golang", "gin", "grpc"}},
			{Name: "csharp", Keywords: []string{"c#", ".net", "asp.net", "dotnet"}},
			{Name: "cpp", Keywords: []string{"c++", "qt", "stl"}},
			{Name: "php", Keywords: []string{"php", "laravel", "symfony", "wordpress"}},
			{Name: "ruby", Keywords: []string{"ruby", "rails"}},
			{Name: "rust", Keywords: []string{"rust", "cargo", "tokio"}},
			{Name: "mobile", Keywords: []string{"swift", "ios", "android", "flutter", "react native"}},
			{Name: "database", Keywords: []string{"sql", "postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch"}},
			{Name: "cloud", Keywords: []string{"aws", "azure", "gcp", "google cloud", "cloud"}},
			{Name: "devops", Keywords: []string{"docker", "kubernetes", "terraform", "ansible", "jenkins", "ci/cd", "devops"}},
			{Name: "data", Keywords: []string{"machine learning", "data science", "tensorflow", "pytorch", "spark", "hadoop", "tableau"}},
			{Name: "design", Keywords: []string{"figma", "sketch", "photoshop", "illustrator", "ux", "ui design"}},
			{Name: "marketing", Keywords: []string{"seo", "sem", "google analytics", "content marketing", "social media"}},
			{Name: "management", Keywords: []string{"agile", "scrum", "kanban", "jira", "project management"}},
			{Name: "version-control", Keywords: []string{"git", "github", "gitlab", "bitbucket"}},
		},
		JobTitles: []Category{
			{Name: "developer", Keywords: []string{"developer", "programmer", "software engineer", "développeur", "desarrollador", "entwickler"}},
			{Name: "frontend", Keywords: []string{"frontend", "front-end", "front end"}},
			{Name: "backend", Keywords: []string{"backend", "back-end", "back end"}},
			{Name: "fullstack", Keywords: []string{"fullstack", "full-stack", "full stack"}},
			{Name: "devops", Keywords: []string{"devops", "site reliability", "sre", "platform engineer"}},
			{Name: "data", Keywords: []string{"data scientist", "data analyst", "data engineer", "machine learning engineer"}},
			{Name: "designer", Keywords: []string{"designer", "ux", "ui/ux"}},
			{Name: "manager", Keywords: []string{"manager", "team lead", "head of", "chef de projet"}},
			{Name: "product", Keywords: []string{"product manager", "product owner"}},
			{Name: "marketing", Keywords: []string{"marketing", "growth", "seo specialist"}},
			{Name: "sales", Keywords: []string{"sales", "account executive", "business developer", "commercial"}},
			{Name: "qa", Keywords: []string{"qa", "tester", "quality assurance", "test engineer"}},
		},
		Industries: []Category{
			{Name: "technology", Keywords: []string{"software", "saas", "tech", "it services", "startup"}},
			{Name: "finance", Keywords: []string{"finance", "bank", "fintech", "insurance", "trading"}},
			{Name: "healthcare", Keywords: []string{"health", "medical", "hospital", "pharma", "biotech"}},
			{Name: "ecommerce", Keywords: []string{"e-commerce", "ecommerce", "retail", "marketplace"}},
			{Name: "education", Keywords: []string{"education", "edtech", "school", "learning platform"}},
			{Name: "media", Keywords: []string{"media", "publishing", "entertainment", "gaming"}},
			{Name: "consulting", Keywords: []string{"consulting", "agency", "esn", "ssii"}},
			{Name: "manufacturing", Keywords: []string{"manufacturing", "industry 4.0", "automotive", "aerospace"}},
			{Name: "energy", Keywords: []string{"energy", "renewable", "oil", "utilities"}},
			{Name: "government", Keywords: []string{"government", "public sector", "administration"}},
		},
		Experience: map[Level][]string{
			LevelJunior:    {"junior", "entry level", "entry-level", "graduate", "intern", "trainee", "apprentice", "débutant"},
			LevelMid:       {"mid-level", "mid level", "intermediate", "confirmed", "confirmé", "3 years", "2-5 years"},
			LevelSenior:    {"senior", "lead", "principal", "expert", "architect", "5+ years", "7+ years"},
			LevelExecutive: {"director", "vp", "vice president", "cto", "ceo", "chief", "head of"},
		},
		Education: []string{
			"bachelor", "master", "phd", "doctorate", "mba", "degree", "diploma", "licence",
			"bsc", "msc", "university", "college", "certification", "certified", "bootcamp",
		},
		Languages: []string{
			"english", "french", "spanish", "german", "italian", "portuguese", "dutch",
			"chinese", "mandarin", "japanese", "arabic", "russian", "hindi",
			"français", "anglais", "español", "deutsch",
		},
		LanguageIndicators: map[string][]string{
			LanguageFrench:  {"le", "la", "les", "et", "est", "vous", "nous", "pour", "avec", "dans", "une", "des", "poste"},
			LanguageSpanish: {"el", "los", "las", "y", "es", "para", "con", "una", "del", "que", "puesto"},
			LanguageGerman:  {"der", "die", "das", "und", "ist", "mit", "für", "wir", "sie", "ein", "stelle"},
			LanguageEnglish: {"the", "and", "is", "with", "for", "you", "we", "are", "our", "will"},
		},
	}
}

// merge fills the sections missing from d with the defaults.
func (d *Dictionary) merge(defaults *Dictionary) {
	if len(d.Skills) == 0 {
		d.Skills = defaults.Skills
	}
	if len(d.JobTitles) == 0 {
		d.JobTitles = defaults.JobTitles
	}
	if len(d.Industries) == 0 {
		d.Industries = defaults.Industries
	}
	if len(d.Experience) == 0 {
		d.Experience = defaults.Experience
	}
	if len(d.Education) == 0 {
		d.Education = defaults.Education
	}
	if len(d.Languages) == 0 {
		d.Languages = defaults.Languages
	}
	if len(d.LanguageIndicators) == 0 {
		d.LanguageIndicators = defaults.LanguageIndicators
	}
}
