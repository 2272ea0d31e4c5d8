package logging

import (
	"strings"
)

const (
	maskChar      = "*"
	urlMaskLength = 30
)

var sensitiveFields = []string{
	"token",
	"secret",
	"password",
	"api_key",
	"authorization",
	"credential",
}

// MaskURL masks a URL, keeping only its first characters. Webhook URLs
// embed their auth token in the path.
func MaskURL(url string) string {
	if len(url) <= urlMaskLength {
		return url
	}
	return url[:urlMaskLength] + strings.Repeat(maskChar, 3)
}

// MaskValue masks a sensitive value completely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(maskChar, min(len(value), 8))
}

// IsSensitiveField reports whether a field name indicates secret data.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, keyword := range sensitiveFields {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// MaskArgs masks sensitive values in key-value logging arguments.
func MaskArgs(args []any) []any {
	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok || !IsSensitiveField(key) {
			continue
		}
		if s, ok := result[i+1].(string); ok {
			result[i+1] = MaskValue(s)
		} else {
			result[i+1] = strings.Repeat(maskChar, 8)
		}
	}

	return result
}
