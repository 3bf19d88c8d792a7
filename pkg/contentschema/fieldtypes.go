package contentschema

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// FieldType is the closed set of field kinds a model may declare. Extending
// the taxonomy means recompiling; there is no runtime registration.
type FieldType string

// Field type constants (typed).
const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeImage    FieldType = "image"
	FieldTypeRichText FieldType = "richtext"
	FieldTypeArray    FieldType = "array"
	FieldTypeRelation FieldType = "relation"
	FieldTypeJSON     FieldType = "json"
)

// ParseFieldType converts a string to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if _, ok := fieldSettingSchemas[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
	}
	return t, nil
}

// settingKind is the value shape a recognized settings key must satisfy.
type settingKind int

const (
	settingNumber settingKind = iota
	settingString
	settingBool
	settingPattern    // string containing a compilable regular expression
	settingModelID    // string containing a model UUID
	settingOptions    // list of {label, value} pairs with non-empty value
	settingStringList // list of strings
)

// settingsSchema maps a tag's recognized keys to their required value shape.
type settingsSchema map[string]settingKind

// Per-field-type settings shapes. Keys absent here but present in another
// type's shape are rejected; keys unknown to the whole taxonomy pass through
// untouched for forward compatibility.
var fieldSettingSchemas = map[FieldType]settingsSchema{
	FieldTypeText:     {"minLength": settingNumber, "maxLength": settingNumber, "defaultValue": settingString},
	FieldTypeNumber:   {"min": settingNumber, "max": settingNumber, "step": settingNumber},
	FieldTypeBoolean:  {},
	FieldTypeDate:     {"format": settingString},
	FieldTypeImage:    {},
	FieldTypeRichText: {},
	FieldTypeArray:    {"options": settingOptions, "multiple": settingBool},
	FieldTypeRelation: {"relationModel": settingModelID},
	FieldTypeJSON:     {},
}

// Keys a field type cannot omit.
var fieldRequiredSettings = map[FieldType][]string{
	FieldTypeArray:    {"options"},
	FieldTypeRelation: {"relationModel"},
}

// fieldReservedKeys is the union of every field type's recognized keys. A key
// in this set used under the wrong tag is a shape violation, not an unknown
// pass-through key.
var fieldReservedKeys = reservedKeys(fieldSettingSchemas)

func reservedKeys[T ~string](schemas map[T]settingsSchema) map[string]bool {
	keys := make(map[string]bool)
	for _, schema := range schemas {
		for k := range schema {
			keys[k] = true
		}
	}
	return keys
}

// ValidateFieldSettings checks settings against the shape declared for the
// given field type. It returns a *SchemaError naming the offending key on
// violation.
func ValidateFieldSettings(t FieldType, settings map[string]interface{}) error {
	schema, ok := fieldSettingSchemas[t]
	if !ok {
		return &SchemaError{Tag: string(t), Key: "type", Reason: "unknown field type"}
	}
	return validateTaggedSettings(string(t), settings, schema, fieldRequiredSettings[t], fieldReservedKeys)
}

// validateTaggedSettings is the shared closed-tag/per-tag-payload validator
// used for both field settings and validation rule settings.
func validateTaggedSettings(tag string, settings map[string]interface{}, schema settingsSchema, required []string, reserved map[string]bool) error {
	for _, key := range required {
		if v, ok := settings[key]; !ok || v == nil {
			return &SchemaError{Tag: tag, Key: key, Reason: "is required"}
		}
	}
	for key, value := range settings {
		kind, recognized := schema[key]
		if !recognized {
			if reserved[key] {
				return &SchemaError{Tag: tag, Key: key, Reason: "not valid for this type"}
			}
			continue
		}
		if reason := checkSettingValue(kind, value); reason != "" {
			return &SchemaError{Tag: tag, Key: key, Reason: reason}
		}
	}
	return nil
}

func checkSettingValue(kind settingKind, value interface{}) string {
	switch kind {
	case settingNumber:
		if !isNumeric(value) {
			return "must be a number"
		}
	case settingString:
		if _, ok := value.(string); !ok {
			return "must be a string"
		}
	case settingBool:
		if _, ok := value.(bool); !ok {
			return "must be a boolean"
		}
	case settingPattern:
		s, ok := value.(string)
		if !ok {
			return "must be a string"
		}
		if _, err := regexp.Compile(s); err != nil {
			return "must be a valid regular expression"
		}
	case settingModelID:
		s, ok := value.(string)
		if !ok {
			return "must be a model id"
		}
		if _, err := uuid.Parse(s); err != nil {
			return "must be a model id"
		}
	case settingOptions:
		return checkOptionList(value)
	case settingStringList:
		list, ok := value.([]interface{})
		if !ok || len(list) == 0 {
			return "must be a non-empty list of strings"
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return "must be a non-empty list of strings"
			}
		}
	}
	return ""
}

// checkOptionList validates a select-option list: every entry is a
// {label, value} pair and value is a non-empty string.
func checkOptionList(value interface{}) string {
	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return "must be a non-empty list of options"
	}
	for _, item := range list {
		opt, ok := item.(map[string]interface{})
		if !ok {
			return "options must be label/value pairs"
		}
		if _, ok := opt["label"].(string); !ok {
			return "option label must be a string"
		}
		v, ok := opt["value"].(string)
		if !ok || v == "" {
			return "option value must be a non-empty string"
		}
	}
	return ""
}

// isNumeric accepts the numeric shapes that survive JSON decoding as well as
// plain Go integers supplied by library callers.
func isNumeric(value interface{}) bool {
	switch v := value.(type) {
	case float64, float32, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}
