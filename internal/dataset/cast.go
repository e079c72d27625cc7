package dataset

import (
	"fmt"
	"strconv"
)

// CanonicalString converts a column value to its canonical string form.
// The conversion must be stable across runs and platforms: row keys are
// built from these strings, and a formatting change would silently move
// every record to a new key. Floats therefore always use the shortest
// decimal representation without exponent notation.
func CanonicalString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
