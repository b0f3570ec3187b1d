package schema

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"convi-text-pipeline/internal/models"
)

var roleType = reflect.TypeOf(models.Role(0))

// OutputSchema returns the JSON schema of models.TextPipelineOutput.
func OutputSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    mapRole,
	}
	return reflector.Reflect(&models.TextPipelineOutput{})
}

// OutputSchemaMap returns OutputSchema as a generic JSON object.
func OutputSchemaMap() (map[string]any, error) {
	b, err := OutputSchema().MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mapRole(t reflect.Type) *jsonschema.Schema {
	if t != roleType {
		return nil
	}
	enum := make([]any, 0, len(models.Roles))
	for _, r := range models.Roles {
		enum = append(enum, r.String())
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}
