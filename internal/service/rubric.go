package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/models"
)

const rubricSchemaDocument = `{
  "type": "array",
  "maxItems": 50,
  "items": {
    "type": "object",
    "required": ["id", "title", "max_points"],
    "additionalProperties": false,
    "properties": {
      "id": {"type": "string", "minLength": 1, "maxLength": 64, "pattern": "^[A-Za-z0-9_-]+$"},
      "title": {"type": "string", "minLength": 1, "maxLength": 255},
      "max_points": {"type": "number", "exclusiveMinimum": 0},
      "levels": {
        "type": "array",
        "maxItems": 10,
        "items": {
          "type": "object",
          "required": ["label", "points"],
          "additionalProperties": false,
          "properties": {
            "label": {"type": "string", "minLength": 1, "maxLength": 120},
            "points": {"type": "number", "minimum": 0},
            "description": {"type": "string", "maxLength": 1000}
          }
        }
      }
    }
  }
}`

var rubricSchema = jsonschema.MustCompileString("rubric.schema.json", rubricSchemaDocument)

// parseRubric validates a raw rubric definition. An absent or null rubric yields nil.
func parseRubric(raw json.RawMessage) ([]models.RubricCriterion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var document interface{}
	if err := json.Unmarshal(trimmed, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}
	if err := rubricSchema.Validate(document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}

	var criteria []models.RubricCriterion
	if err := json.Unmarshal(trimmed, &criteria); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}

	seen := make(map[string]struct{}, len(criteria))
	for _, criterion := range criteria {
		if _, ok := seen[criterion.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate criterion id %q", ErrInvalidRubric, criterion.ID)
		}
		seen[criterion.ID] = struct{}{}

		for _, level := range criterion.Levels {
			if level.Points > criterion.MaxPoints {
				return nil, fmt.Errorf("%w: level %q of %q exceeds max_points", ErrInvalidRubric, level.Label, criterion.ID)
			}
		}
	}

	return criteria, nil
}

// checkRubricScores validates per-criterion scores against the assignment rubric.
func checkRubricScores(criteria []models.RubricCriterion, inputs []dto.RubricScoreInput) ([]models.RubricScore, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	byID := make(map[string]models.RubricCriterion, len(criteria))
	for _, criterion := range criteria {
		byID[criterion.ID] = criterion
	}

	scores := make([]models.RubricScore, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		criterion, ok := byID[input.CriterionID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown criterion %q", ErrInvalidRubricScore, input.CriterionID)
		}
		if _, dup := seen[input.CriterionID]; dup {
			return nil, fmt.Errorf("%w: criterion %q scored twice", ErrInvalidRubricScore, input.CriterionID)
		}
		seen[input.CriterionID] = struct{}{}

		if input.Points > criterion.MaxPoints+1e-9 {
			return nil, fmt.Errorf("%w: criterion %q allows at most %.2f points", ErrInvalidRubricScore, input.CriterionID, criterion.MaxPoints)
		}

		scores = append(scores, models.RubricScore{
			CriterionID: input.CriterionID,
			Points:      input.Points,
			Comment:     input.Comment,
		})
	}

	return scores, nil
}
