package conv

import "strconv"

// AsInt coerces JSON-decoded scalar values into a plain int, returning 0
// when no conversion applies.
func AsInt(value interface{}) int {
	switch actual := value.(type) {
	case int:
		return actual
	case int32:
		return int(actual)
	case int64:
		return int(actual)
	case uint:
		return int(actual)
	case uint64:
		return int(actual)
	case float32:
		return int(actual)
	case float64:
		return int(actual)
	case string:
		if parsed, err := strconv.Atoi(actual); err == nil {
			return parsed
		}
	}
	return 0
}
