// Package prompt turns a focus-area selection and its optional form fields
// into the instruction block sent to the completion gateway.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

// Field is one optional form input of a writing category.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FocusOption is one selectable focus area within a category, together
// with the ordered list of field keys shown for it.
type FocusOption struct {
	Value  string   `json:"value"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

// Category describes one writing tool: its focus areas and field labels.
type Category struct {
	QueryType domain.QueryType `json:"query_type"`
	Title     string           `json:"title"`
	Options   []FocusOption    `json:"options"`
	Fields    []Field          `json:"field_labels"`
}

func (c Category) option(value string) (FocusOption, bool) {
	for _, opt := range c.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return FocusOption{}, false
}

func (c Category) label(key string) string {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Label
		}
	}
	return ""
}

// Lookup returns the category for a query type.
func Lookup(queryType domain.QueryType) (Category, error) {
	for _, c := range catalog {
		if c.QueryType == queryType {
			return c, nil
		}
	}
	return Category{}, ErrUnknownQueryType
}

// Catalog returns every writing category, in dashboard order.
func Catalog() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Build renders the user prompt for a focus area. Only non-empty fields
// are included, in the order the category defines them.
func Build(queryType domain.QueryType, focusValue string, fields map[string]string) (string, error) {
	if focusValue == "" {
		return "", ErrFocusRequired
	}

	cat, err := Lookup(queryType)
	if err != nil {
		return "", err
	}

	opt, ok := cat.option(focusValue)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFocusArea, focusValue)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[FOCUS AREA: %s]\n\n", opt.Label)
	fmt.Fprintf(&b, "Generate %s.", opt.Label)

	var details []string
	for _, key := range opt.Fields {
		value := strings.TrimSpace(fields[key])
		if value == "" {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %s", cat.label(key), value))
	}
	if len(details) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(details, "\n"))
	}

	return b.String(), nil
}

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrFocusRequired    = errors.New("focus area must be selected")
	ErrUnknownFocusArea = errors.New("unknown focus area")
)
