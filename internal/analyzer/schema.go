// Package analyzer runs the two-stage generation pipeline that extracts
// forensic artifacts from report text and maps them to attack phases.
package analyzer

func stringProp() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func confidenceProp() map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": []string{"high", "medium", "low"}}
}

func stringArray() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": stringProp()}
}

var artifactSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"type":  stringProp(),
		"value": stringProp(),
		"properties": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": stringProp(),
		},
		"context":    stringProp(),
		"confidence": confidenceProp(),
	},
	"required": []interface{}{"type", "value"},
}

// ExtractionSchema is a JSON Schema for constrained Stage 1 output.
var ExtractionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"artifacts": map[string]interface{}{"type": "array", "items": artifactSchema},
		"extraction_metadata": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"total_artifacts":   map[string]interface{}{"type": "integer"},
				"high_confidence":   map[string]interface{}{"type": "integer"},
				"medium_confidence": map[string]interface{}{"type": "integer"},
				"low_confidence":    map[string]interface{}{"type": "integer"},
			},
		},
	},
	"required": []interface{}{"artifacts"},
}

// ReasoningSchema is a JSON Schema for constrained Stage 2 output.
var ReasoningSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"reasoning_chains": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"artifact_id": stringProp(),
					"artifact":    artifactSchema,
					"reasoning_steps": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"step":       map[string]interface{}{"type": "integer"},
								"question":   stringProp(),
								"analysis":   stringProp(),
								"conclusion": stringProp(),
							},
						},
					},
					"final_mapping": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"tactic":                 stringProp(),
							"technique":              stringProp(),
							"phase":                  stringProp(),
							"confidence":             confidenceProp(),
							"explicit_justification": stringProp(),
						},
						"required": []interface{}{"phase"},
					},
				},
				"required": []interface{}{"artifact_id", "artifact", "final_mapping"},
			},
		},
		"attack_timeline": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"phase":                stringProp(),
					"tactic":               stringProp(),
					"technique":            stringProp(),
					"artifacts":            stringArray(),
					"chronological_order":  map[string]interface{}{"type": "integer"},
					"causal_relationships": stringArray(),
					"phase_justification":  stringProp(),
				},
			},
		},
		"overall_attack_narrative": stringProp(),
		"confidence_assessment": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"overall_confidence": confidenceProp(),
				"reasoning_quality":  stringProp(),
				"mapping_validation": stringProp(),
			},
		},
	},
	"required": []interface{}{"reasoning_chains", "attack_timeline"},
}
