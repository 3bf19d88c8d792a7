package contentschema

import "fmt"

// RuleType is the closed set of validation rule kinds. Rules reuse the same
// closed-tag/per-tag-payload mechanism as field settings: the tag constrains
// which settings keys are meaningful.
type RuleType string

// Rule type constants (typed).
const (
	RuleTypeRequired  RuleType = "required"
	RuleTypeMinLength RuleType = "minLength"
	RuleTypeMaxLength RuleType = "maxLength"
	RuleTypePattern   RuleType = "pattern"
	RuleTypeEmail     RuleType = "email"
	RuleTypeURL       RuleType = "url"
	RuleTypeMin       RuleType = "min"
	RuleTypeMax       RuleType = "max"
	RuleTypeEnum      RuleType = "enum"
	RuleTypeUnique    RuleType = "unique"
	RuleTypeCustom    RuleType = "custom"
)

// ParseRuleType converts a string to a RuleType.
func ParseRuleType(s string) (RuleType, error) {
	t := RuleType(s)
	if _, ok := ruleSettingSchemas[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRuleType, s)
	}
	return t, nil
}

// Per-rule-type settings shapes. The customFunction body is opaque text; the
// engine stores it byte-for-byte and never evaluates it.
var ruleSettingSchemas = map[RuleType]settingsSchema{
	RuleTypeRequired:  {},
	RuleTypeMinLength: {"minLength": settingNumber},
	RuleTypeMaxLength: {"maxLength": settingNumber},
	RuleTypePattern:   {"pattern": settingPattern},
	RuleTypeEmail:     {},
	RuleTypeURL:       {},
	RuleTypeMin:       {"min": settingNumber},
	RuleTypeMax:       {"max": settingNumber},
	RuleTypeEnum:      {"values": settingStringList},
	RuleTypeUnique:    {},
	RuleTypeCustom:    {"customFunction": settingString},
}

var ruleRequiredSettings = map[RuleType][]string{
	RuleTypeMinLength: {"minLength"},
	RuleTypeMaxLength: {"maxLength"},
	RuleTypePattern:   {"pattern"},
	RuleTypeMin:       {"min"},
	RuleTypeMax:       {"max"},
	RuleTypeEnum:      {"values"},
	RuleTypeCustom:    {"customFunction"},
}

var ruleReservedKeys = reservedKeys(ruleSettingSchemas)

// ValidateRuleSettings checks settings against the shape declared for the
// given rule type. It returns a *SchemaError naming the offending key on
// violation.
func ValidateRuleSettings(t RuleType, settings map[string]interface{}) error {
	schema, ok := ruleSettingSchemas[t]
	if !ok {
		return &SchemaError{Tag: string(t), Key: "type", Reason: "unknown rule type"}
	}
	return validateTaggedSettings(string(t), settings, schema, ruleRequiredSettings[t], ruleReservedKeys)
}
