package tool

import "github.com/hupe1980/agentcrew/internal/util"

// Param declares one tool parameter. Type is a JSON schema type name
// ("string", "integer", "number", "boolean", "array", "object") or a common Go
// spelling of one ("int", "float", "bool", ...); anything else is described as
// "string". A parameter is required iff it has no default.
type Param struct {
	Name        string
	Type        string
	Description string
	Default     any
	HasDefault  bool
	Items       string // element type for arrays
}

// Required declares a parameter without default.
func Required(name, typ, description string) Param {
	return Param{Name: name, Type: typ, Description: description}
}

// Optional declares a parameter with a default value.
func Optional(name, typ, description string, def any) Param {
	return Param{Name: name, Type: typ, Description: description, Default: def, HasDefault: true}
}

// Schema builds the JSON schema object for a parameter list:
// {"type":"object","properties":{...},"required":[...]}.
func Schema(params ...Param) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		prop := map[string]any{"type": util.JSONType(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if prop["type"] == "array" {
			items := "string"
			if p.Items != "" {
				items = util.JSONType(p.Items)
			}
			prop["items"] = map[string]any{"type": items}
		}
		properties[p.Name] = prop

		if !p.HasDefault {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// applyDefaults fills missing arguments with declared defaults.
func applyDefaults(args map[string]any, params []Param) map[string]any {
	for _, p := range params {
		if !p.HasDefault {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			args[p.Name] = p.Default
		}
	}
	return args
}
