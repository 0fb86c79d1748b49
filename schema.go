package gallery

import (
	"errors"
	"fmt"
	"strings"
)

// Column describes one column of an index table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ImageColumns is the ordered column list of the images table with the
// backend specific types filled in.
func ImageColumns(textType, timeType, intType string) []Column {
	return []Column{
		{Name: "file_name", Type: textType},
		{Name: "id", Type: textType},
		{Name: "title", Type: textType},
		{Name: "description", Type: textType},
		{Name: "tags", Type: textType},
		{Name: "location", Type: textType},
		{Name: "upload_date", Type: timeType},
		{Name: "size", Type: intType},
		{Name: "mime_type", Type: textType},
		{Name: "url", Type: textType},
	}
}

// CompareColumns checks that every column in want is present in got with the
// same type and nullability. Types are compared case-insensitively and extra
// columns in got are allowed.
func CompareColumns(table string, want, got []Column) error {
	actual := make(map[string]Column, len(got))
	for _, c := range got {
		actual[c.Name] = c
	}

	var missing, mismatched []string
	for _, w := range want {
		a, ok := actual[w.Name]
		if !ok {
			missing = append(missing, w.Name)
			continue
		}
		if !strings.EqualFold(a.Type, w.Type) {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %s, got %s", w.Name, w.Type, strings.ToLower(a.Type)))
		}
		if a.Nullable != w.Nullable {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", w.Name, w.Nullable, a.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "table %s does not match the expected schema", table)
	if len(missing) > 0 {
		fmt.Fprintf(&msg, "; missing columns: %s", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		fmt.Fprintf(&msg, "; mismatched columns: %s", strings.Join(mismatched, "; "))
	}
	return errors.New(msg.String())
}
