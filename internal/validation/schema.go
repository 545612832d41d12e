package validation

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"actionplan-tracker/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("validation failed")

var (
	planSchema       = mustLoadSchema("plan.json")
	planUpdateSchema = mustLoadSchema("plan_update.json")
	taskSchema       = mustLoadSchema("task.json")
	taskUpdateSchema = mustLoadSchema("task_update.json")
)

// LoadSchema compiles one of the embedded JSON schemas
func LoadSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	return schema, nil
}

func mustLoadSchema(name string) *gojsonschema.Schema {
	schema, err := LoadSchema(name)
	if err != nil {
		panic(err)
	}
	return schema
}

// ValidateDocument validates a JSON document against a schema
func ValidateDocument(doc []byte, schema *gojsonschema.Schema) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalid, err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	return nil
}

func validateAndParse[T any](doc []byte, schema *gojsonschema.Schema) (*T, error) {
	if err := ValidateDocument(doc, schema); err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrInvalid, err)
	}
	return &out, nil
}

// ParseCreatePlan validates and decodes the body of a plan creation request
func ParseCreatePlan(doc []byte) (*models.CreatePlanRequest, error) {
	return validateAndParse[models.CreatePlanRequest](doc, planSchema)
}

// ParsePlanUpdate validates and decodes a partial plan update
func ParsePlanUpdate(doc []byte) (*models.PlanUpdate, error) {
	return validateAndParse[models.PlanUpdate](doc, planUpdateSchema)
}

// ParseCreateTask validates and decodes the body of a task creation request
func ParseCreateTask(doc []byte) (*models.CreateTaskRequest, error) {
	return validateAndParse[models.CreateTaskRequest](doc, taskSchema)
}

// ParseTaskUpdate validates and decodes a partial task update
func ParseTaskUpdate(doc []byte) (*models.TaskUpdate, error) {
	return validateAndParse[models.TaskUpdate](doc, taskUpdateSchema)
}
