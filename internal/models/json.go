package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONMap encodes m for a jsonb column. Nil or unencodable maps become {}.
func JSONMap(m map[string]interface{}) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

// DecodeJSONMap is the inverse of JSONMap.
func DecodeJSONMap(j datatypes.JSON) map[string]interface{} {
	out := make(map[string]interface{})
	if len(j) == 0 {
		return out
	}
	_ = json.Unmarshal(j, &out)
	return out
}
