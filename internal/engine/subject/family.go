package subject

import (
	"regexp"
	"strings"
)

// Family identifies a closed group of related subject keywords.
type Family string

const (
	FamilyNone          Family = ""
	FamilyScience       Family = "SCIENCE"
	FamilyMath          Family = "MATH"
	FamilyEnglish       Family = "ENGLISH"
	FamilySocialStudies Family = "SOCIAL_STUDIES"
	FamilyPE            Family = "PHYSICAL_EDUCATION"
	FamilyArts          Family = "ARTS"
	FamilyLanguages     Family = "LANGUAGES"
	FamilyComputing     Family = "COMPUTING"
)

// familyKeywords is the closed keyword corpus. Multi-word keywords are
// written hyphenated and compared as contiguous token sequences.
var familyKeywords = map[Family][]string{
	FamilyScience:       {"science", "biology", "chemistry", "physics", "earth-science", "life-science", "physical-science"},
	FamilyMath:          {"math", "algebra", "geometry", "calculus", "trigonometry", "pre-calculus", "pre-algebra"},
	FamilyEnglish:       {"english", "literature", "language-arts", "writing", "reading", "composition"},
	FamilySocialStudies: {"history", "geography", "civics", "government", "economics", "social-studies", "world-history", "us-history", "american-history"},
	FamilyPE:            {"physical-education", "pe", "health", "athletics", "fitness", "gym", "gymnastics"},
	FamilyArts:          {"art", "music", "drama", "theater", "theatre", "band", "chorus", "orchestra", "choir", "painting", "drawing", "visual-art"},
	FamilyLanguages:     {"spanish", "french", "german", "latin", "chinese", "japanese", "italian", "foreign-language"},
	FamilyComputing:     {"computer", "programming", "coding", "technology", "information-technology"},
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// keywordTokens is built once at init: family -> keyword token sequences.
var keywordTokens map[Family][][]string

func init() {
	keywordTokens = make(map[Family][][]string, len(familyKeywords))
	for family, keywords := range familyKeywords {
		seqs := make([][]string, 0, len(keywords))
		for _, kw := range keywords {
			seqs = append(seqs, tokenize(kw))
		}
		keywordTokens[family] = seqs
	}
}

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// containsSequence reports whether needle appears contiguously in haystack.
func containsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// MatchesFamily reports whether the subject contains a whole-word keyword of
// the family. Substring matches never count: "literature" is English, not Arts.
func MatchesFamily(subjectName string, family Family) bool {
	tokens := tokenize(subjectName)
	for _, kw := range keywordTokens[family] {
		if containsSequence(tokens, kw) {
			return true
		}
	}
	return false
}

// FamilyOf returns the first family with a keyword present in the subject.
func FamilyOf(subjectName string) Family {
	for _, family := range []Family{
		FamilyScience, FamilyMath, FamilyEnglish, FamilySocialStudies,
		FamilyPE, FamilyArts, FamilyLanguages, FamilyComputing,
	} {
		if MatchesFamily(subjectName, family) {
			return family
		}
	}
	return FamilyNone
}

// MatchLevel grades how well a certification fits a course subject.
type MatchLevel int

const (
	MatchNone MatchLevel = iota
	MatchFamily
	MatchExact
)

// Match compares a teacher certification against a course subject.
// Comparison is case-insensitive; exact beats family.
func Match(certification, courseSubject string) MatchLevel {
	certTokens := tokenize(certification)
	subjTokens := tokenize(courseSubject)
	if len(certTokens) > 0 && len(certTokens) == len(subjTokens) {
		equal := true
		for i := range certTokens {
			if certTokens[i] != subjTokens[i] {
				equal = false
				break
			}
		}
		if equal {
			return MatchExact
		}
	}

	certFamily := FamilyOf(certification)
	if certFamily != FamilyNone && certFamily == FamilyOf(courseSubject) {
		return MatchFamily
	}
	return MatchNone
}

// BestMatch returns the strongest match across a certification list.
func BestMatch(certifications []string, courseSubject string) MatchLevel {
	best := MatchNone
	for _, cert := range certifications {
		if level := Match(cert, courseSubject); level > best {
			best = level
		}
	}
	return best
}
