package utils

import (
	"strconv"
	"strings"
)

// ParseBoolOption parses a query or form flag, returning false if the string
// is empty or invalid. "yes" and "on" are accepted along with strconv forms.
func ParseBoolOption(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "":
		return false
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
