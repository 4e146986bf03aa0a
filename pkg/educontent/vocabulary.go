package educontent

import "slices"

// Vocabulary holds the classification values offered to clients. Stored
// records are not constrained by it; the API validates incoming values.
type Vocabulary struct {
	ContentTypes []ContentType   `json:"contentTypes"`
	Statuses     []ContentStatus `json:"statuses"`
	AgeGroups    []string        `json:"ageGroups"`
	ClassLevels  []string        `json:"classLevels"`
	Categories   []string        `json:"categories"`
	Areas        []string        `json:"areas"`
}

var (
	AgeGroups = []string{
		"3-5 years",
		"6-8 years",
		"9-11 years",
		"12-14 years",
		"15-17 years",
		"18+ years",
	}

	ClassLevels = []string{
		"Kindergarten",
		"1st Grade",
		"2nd Grade",
		"3rd Grade",
		"4th Grade",
		"5th Grade",
		"6th Grade",
		"7th Grade",
		"8th Grade",
		"9th Grade",
		"10th Grade",
		"11th Grade",
		"12th Grade",
	}

	Categories = []string{
		"Mathematics",
		"Science",
		"Language Arts",
		"Social Studies",
		"Art",
		"Music",
		"Physical Education",
		"Computer Science",
	}

	Areas = []string{
		"North America",
		"South America",
		"Europe",
		"Asia",
		"Africa",
		"Australia",
		"Global",
	}
)

// DefaultVocabulary returns a copy of the built-in classification values.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ContentTypes: slices.Clone(ContentTypes),
		Statuses:     slices.Clone(ContentStatuses),
		AgeGroups:    slices.Clone(AgeGroups),
		ClassLevels:  slices.Clone(ClassLevels),
		Categories:   slices.Clone(Categories),
		Areas:        slices.Clone(Areas),
	}
}

func IsKnownAgeGroup(v string) bool { return slices.Contains(AgeGroups, v) }

func IsKnownClassLevel(v string) bool { return slices.Contains(ClassLevels, v) }

func IsKnownCategory(v string) bool { return slices.Contains(Categories, v) }

func IsKnownArea(v string) bool { return slices.Contains(Areas, v) }
