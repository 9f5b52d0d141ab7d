// Package catalog serves the sector questionnaires and normalizes raw answers
// onto the 0-5 response scale consumed by the scorer.
package catalog

import (
	_ "embed"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/circularity-cli/internal/model"
)

//go:embed questions.yaml
var embedded []byte

// File is the on-disk catalog layout.
type File struct {
	Version string           `yaml:"version"`
	General []model.Question `yaml:"general"`
	Sectors []Sector         `yaml:"sectors"`
}

// Sector is one sector questionnaire.
type Sector struct {
	Key        string           `yaml:"key" json:"key"`
	Name       string           `yaml:"name" json:"name"`
	SubSectors []string         `yaml:"sub_sectors" json:"sub_sectors"`
	Questions  []model.Question `yaml:"questions" json:"-"`
}

// Questionnaire is the question list served for one sector.
type Questionnaire struct {
	Sector     string           `json:"sector"`
	SubSectors []string         `json:"sub_sectors"`
	Questions  []model.Question `json:"questions"`
}

// Catalog is an indexed, read-only question catalog.
type Catalog struct {
	version   string
	general   []model.Question
	sectors   []Sector
	bySector  map[string]int
	questions map[string]model.Question
	generalID map[string]bool
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(embedded)
	})
	return defaultCatalog, defaultErr
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Load(data)
}

// Load parses a YAML catalog and checks that question ids are unique and
// categories and types are known.
func Load(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}

	c := &Catalog{
		version:   f.Version,
		general:   f.General,
		sectors:   f.Sectors,
		bySector:  make(map[string]int, len(f.Sectors)*2),
		questions: make(map[string]model.Question),
		generalID: make(map[string]bool, len(f.General)),
	}

	for _, q := range f.General {
		if err := c.index(q); err != nil {
			return nil, err
		}
		c.generalID[q.ID] = true
	}
	for i, s := range f.Sectors {
		if s.Name == "" {
			return nil, eris.Errorf("catalog: sector %d has no name", i)
		}
		c.bySector[SectorKey(s.Name)] = i
		if s.Key != "" {
			c.bySector[SectorKey(s.Key)] = i
		}
		for _, q := range s.Questions {
			if err := c.index(q); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *Catalog) index(q model.Question) error {
	if q.ID == "" {
		return eris.New("catalog: question without id")
	}
	if _, dup := c.questions[q.ID]; dup {
		return eris.Errorf("catalog: duplicate question id %q", q.ID)
	}
	switch q.Category {
	case model.CategoryGovernance, model.CategoryEnvironmental, model.CategoryEconomic,
		model.CategorySocial, model.CategoryLogistics:
	default:
		return eris.Errorf("catalog: question %q has unknown category %q", q.ID, q.Category)
	}
	switch q.Type {
	case model.QuestionBoolean, model.QuestionPercentage, model.QuestionNumber,
		model.QuestionText, model.QuestionChoice:
	default:
		return eris.Errorf("catalog: question %q has unknown type %q", q.ID, q.Type)
	}
	if q.Type == model.QuestionChoice && len(q.Scale) > 0 && len(q.Scale) != len(q.Choices) {
		return eris.Errorf("catalog: question %q has %d choices but %d scale values", q.ID, len(q.Choices), len(q.Scale))
	}
	c.questions[q.ID] = q
	return nil
}

// Version returns the catalog version string.
func (c *Catalog) Version() string { return c.version }

// Sectors returns the sector list without questions.
func (c *Catalog) Sectors() []Sector {
	out := make([]Sector, len(c.sectors))
	for i, s := range c.sectors {
		out[i] = Sector{Key: s.Key, Name: s.Name, SubSectors: s.SubSectors}
	}
	return out
}

// General returns the cross-sector questions.
func (c *Catalog) General() []model.Question {
	return append([]model.Question(nil), c.general...)
}

// Count returns the number of distinct questions.
func (c *Catalog) Count() int { return len(c.questions) }

// Question looks up a question by id.
func (c *Catalog) Question(id string) (model.Question, bool) {
	q, ok := c.questions[id]
	return q, ok
}

// IsGeneral reports whether id is a cross-sector question.
func (c *Catalog) IsGeneral(id string) bool { return c.generalID[id] }

// ForSector returns the general questions followed by the sector's own.
// sector may be the sector name, its key, or "Sector - Sub-sector".
func (c *Catalog) ForSector(sector string) (*Questionnaire, error) {
	s, ok := c.findSector(sector)
	if !ok {
		return nil, eris.Wrapf(model.ErrNotFound, "catalog: sector %q", sector)
	}

	qs := make([]model.Question, 0, len(c.general)+len(s.Questions))
	qs = append(qs, c.general...)
	qs = append(qs, s.Questions...)
	return &Questionnaire{Sector: s.Name, SubSectors: s.SubSectors, Questions: qs}, nil
}

func (c *Catalog) findSector(sector string) (Sector, bool) {
	if i, ok := c.bySector[SectorKey(sector)]; ok {
		return c.sectors[i], true
	}
	if head, _, found := strings.Cut(sector, " - "); found {
		if i, ok := c.bySector[SectorKey(head)]; ok {
			return c.sectors[i], true
		}
	}
	return Sector{}, false
}

// SectorKey folds a label for matching: accents stripped, case folded,
// whitespace collapsed.
func SectorKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
