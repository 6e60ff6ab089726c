package models

import (
	"database/sql/driver"
	"fmt"
)

// JSONB is a nullable JSON/JSONB column. A nil value is stored as NULL.
type JSONB []byte

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		if len(v) == 0 || string(v) == "null" {
			*j = nil
			return nil
		}
		buf := make([]byte, len(v))
		copy(buf, v)
		*j = buf
	case string:
		if v == "" || v == "null" {
			*j = nil
			return nil
		}
		*j = []byte(v)
	default:
		return fmt.Errorf("JSONB Scan: unsupported type %T", value)
	}
	return nil
}
