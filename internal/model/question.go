package model

// QuestionType is the answer shape of a catalog question.
type QuestionType string

const (
	QuestionBoolean    QuestionType = "boolean"
	QuestionPercentage QuestionType = "percentage"
	QuestionNumber     QuestionType = "number"
	QuestionText       QuestionType = "text"
	QuestionChoice     QuestionType = "choice"
)

// Category is the questionnaire section a question belongs to. The four
// dimensions are categories; logistics is collected but not scored.
type Category string

const (
	CategoryGovernance    Category = "governance"
	CategoryEnvironmental Category = "environmental"
	CategoryEconomic      Category = "economic"
	CategorySocial        Category = "social"
	CategoryLogistics     Category = "logistics"
)

// Dimension maps a category to its scoring dimension. ok is false for
// categories that are not scored.
func (c Category) Dimension() (Dimension, bool) {
	d := Dimension(c)
	return d, d.Valid()
}

// Question is a catalog entry.
type Question struct {
	ID           string       `json:"id" yaml:"id"`
	Category     Category     `json:"category" yaml:"category"`
	Text         string       `json:"text" yaml:"text"`
	Type         QuestionType `json:"type" yaml:"type"`
	Weight       int          `json:"weight" yaml:"weight"`
	Unit         string       `json:"unit,omitempty" yaml:"unit,omitempty"`
	Choices      []string     `json:"choices,omitempty" yaml:"choices,omitempty"`
	Scale        []float64    `json:"scale,omitempty" yaml:"scale,omitempty"`
	ISOReference string       `json:"iso_reference,omitempty" yaml:"iso_reference,omitempty"`
}
