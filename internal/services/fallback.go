package services

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var embeddedCatalogs embed.FS

// catalogFile is the on-disk shape of a bundled catalog. Section and
// question order follows file position.
type catalogFile struct {
	SurveyType SurveyType `yaml:"survey_type"`
	Sections   []struct {
		ID          string     `yaml:"id"`
		Title       string     `yaml:"title"`
		Description string     `yaml:"description"`
		Questions   []Question `yaml:"questions"`
	} `yaml:"sections"`
}

// FallbackCatalog returns the bundled catalog for st. The bundle ships one
// questionnaire per survey type so a session can proceed when the gateway
// is unreachable.
func FallbackCatalog(st SurveyType) (*Catalog, error) {
	if !ValidSurveyType(st) {
		return nil, NewInvalidError("unknown survey type " + string(st))
	}
	data, err := embeddedCatalogs.ReadFile(fmt.Sprintf("catalogs/%s.yaml", st))
	if err != nil {
		return nil, NewNotFoundError("no bundled catalog for " + string(st))
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, NewInvalidError("parse bundled catalog: " + err.Error())
	}
	var sections []*Section
	var questions []*Question
	for i, sec := range cf.Sections {
		sections = append(sections, &Section{
			ID:          sec.ID,
			Title:       sec.Title,
			Description: sec.Description,
			Order:       i,
		})
		for _, q := range sec.Questions {
			qq := q
			qq.SectionID = sec.ID
			questions = append(questions, &qq)
		}
	}
	return NewCatalog(cf.SurveyType, sections, questions)
}
