package tags

import "strings"

const base64Prefix = "base64:"
const binaryPlaceholder = "binary data..."

// parsedKey is the outcome of splitting one JSON object key on ':'
// (spec §4.3 "Key parsing").
type parsedKey struct {
	isSourceFile bool
	ignored      bool
	dottedName   string
	tagType      string
}

// splitKey classifies one colon-joined JSON key.
func splitKey(key string) parsedKey {
	segments := strings.Split(key, ":")

	switch len(segments) {
	case 5:
		return parsedKey{
			dottedName: strings.Join([]string{segments[0], segments[1], segments[2], segments[4]}, "."),
			tagType:    segments[3],
		}
	case 4:
		return parsedKey{
			dottedName: strings.Join(segments, "."),
		}
	case 1:
		if segments[0] == "SourceFile" {
			return parsedKey{isSourceFile: true}
		}
		return parsedKey{ignored: true}
	default:
		return parsedKey{ignored: true}
	}
}

// normalizeValue applies the one value substitution spec §4.3 defines:
// a base64-prefixed raw value becomes a fixed placeholder string.
func normalizeValue(val string) string {
	if strings.HasPrefix(val, base64Prefix) {
		return binaryPlaceholder
	}
	return val
}
