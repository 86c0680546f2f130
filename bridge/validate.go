package bridge

import (
	"math"

	"github.com/viant/mcp-protocol/schema"
)

// ValidateArguments checks an invocation payload against the declared input
// schema: every required property must be present and every known property
// must match its declared type. A violation yields a validation fault and the
// handler is never dispatched. Unknown properties are tolerated.
func ValidateArguments(inputSchema *schema.ToolInputSchema, args map[string]interface{}) error {
	for _, name := range inputSchema.Required {
		if _, ok := args[name]; !ok {
			return NewFault(FaultValidation, "missing required argument %q", name)
		}
	}
	for name, value := range args {
		property, ok := inputSchema.Properties[name]
		if !ok {
			continue
		}
		declared, _ := property["type"].(string)
		if declared == "" {
			continue
		}
		if !typeMatches(declared, value) {
			return NewFault(FaultValidation, "argument %q: expected %s", name, declared)
		}
	}
	return nil
}

func typeMatches(declared string, value interface{}) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "integer":
		switch actual := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return actual == math.Trunc(actual)
		}
		return false
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	}
	return true
}
