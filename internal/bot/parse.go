package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCallback splits inline keyboard data of the form "action:arg".
func ParseCallback(data string) (action, arg string, ok bool) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ParseItemArg extracts an item ID from a command argument string.
func ParseItemArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("item ID is required")
	}
	return strings.TrimPrefix(fields[0], "#"), nil
}

// ParseCategoryIndex resolves a category button index.
func ParseCategoryIndex(arg string, categories []string) (string, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(categories) {
		return "", fmt.Errorf("invalid category index %q", arg)
	}
	return categories[i], nil
}
