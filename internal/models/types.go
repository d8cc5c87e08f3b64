package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringArray 以 JSON 数组存储的字符串列表
type StringArray []string

// Value 用于数据库写入
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 用于数据库读取
func (a *StringArray) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(a))
}

// UintArray 以 JSON 数组存储的 ID 列表
type UintArray []uint

// Value 用于数据库写入
func (a UintArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 用于数据库读取
func (a *UintArray) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*a = UintArray{}
		return nil
	}
	return json.Unmarshal(raw, (*[]uint)(a))
}

// Contains 判断是否包含指定 ID
func (a UintArray) Contains(id uint) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported json column type")
	}
}
