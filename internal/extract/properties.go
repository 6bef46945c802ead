package extract

import "strings"

// ItemProperties are the recognized "Key: Value" entries of a basket line.
type ItemProperties struct {
	SKU    *string
	APN    *string
	Colour *string
	Size   *string
}

// ParseProperties reads free-text entries of the form "Key: Value".
//
// Each entry is split on its first colon and the key is trimmed. Only SKU,
// APN, Colour and Size are kept; later entries for the same key replace
// earlier ones. Entries without a colon, non-string entries and empty values
// are skipped.
func ParseProperties(node any) ItemProperties {
	var props ItemProperties

	for _, entry := range Slice(node) {
		text, ok := entry.(string)
		if !ok {
			continue
		}

		key, value, found := strings.Cut(text, ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "SKU":
			props.SKU = &value
		case "APN":
			props.APN = &value
		case "Colour":
			props.Colour = &value
		case "Size":
			props.Size = &value
		}
	}

	return props
}
