package masking

import "strings"

const maskToken = "****"

var contactKeys = map[string]struct{}{
	"phone":         {},
	"email":         {},
	"customer_name": {},
	"address":       {},
	"address_line":  {},
}

// MaskValue redacts a value while keeping a short suffix for matching against support
// requests.
func MaskValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskContactFields returns a copy of the input with contact details masked at any depth.
func MaskContactFields(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if _, ok := contactKeys[strings.ToLower(trimmedKey)]; ok {
			masked[trimmedKey] = maskAll(value)
			continue
		}
		masked[trimmedKey] = maskNested(value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskNested(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return MaskContactFields(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskNested(item))
		}
		return out
	default:
		return value
	}
}

func maskAll(value any) any {
	switch cast := value.(type) {
	case string:
		return MaskValue(cast)
	case *string:
		if cast == nil {
			return nil
		}
		return MaskValue(*cast)
	case map[string]any:
		out := make(map[string]any, len(cast))
		for k, v := range cast {
			out[k] = maskAll(v)
		}
		return out
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskAll(item))
		}
		return out
	default:
		return value
	}
}
