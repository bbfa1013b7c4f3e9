// Package valueobject holds small value types shared across modules.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanValueNotBytes indicates the database value is not JSON text.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a free-form JSON object, used for template data and for jsonb
// columns.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrScanValueNotBytes
	}

	var out JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

// Merge returns a copy of j with the entries of other layered on top.
func (j JSONMap) Merge(other JSONMap) JSONMap {
	out := make(JSONMap, len(j)+len(other))
	for k, v := range j {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// GetString returns the value at key when it is a string.
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}

// GetInt64 returns the value at key as int64, accepting JSON float64 numbers.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
