package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

func TestBuildPoemWithSingleField(t *testing.T) {
	got, err := Build(domain.QueryTypePoetry, "poem", map[string]string{"theme": "grief"})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	want := "[FOCUS AREA: Poem]\n\nGenerate Poem.\n\nTheme: grief"
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestBuildOmitsEmptyFields(t *testing.T) {
	got, err := Build(domain.QueryTypePoetry, "poem", map[string]string{
		"premise": "  ",
		"theme":   "the sea",
		"meter":   "iambic pentameter",
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	want := "[FOCUS AREA: Poem]\n\nGenerate Poem.\n\nTheme: the sea\nMeter: iambic pentameter"
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestBuildNoFields(t *testing.T) {
	got, err := Build(domain.QueryTypeSongwriting, "melody", nil)
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	want := "[FOCUS AREA: Melody & Hook]\n\nGenerate Melody & Hook."
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestBuildFieldOrderFollowsCategory(t *testing.T) {
	got, err := Build(domain.QueryTypeStageScreen, "dialogue", map[string]string{
		"dialogueStyle": "rapid-fire",
		"premise":       "a heist goes wrong",
		"tone":          "tense",
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	want := strings.Join([]string{
		"[FOCUS AREA: Dialogue Crafting]",
		"",
		"Generate Dialogue Crafting.",
		"",
		"Premise: a heist goes wrong",
		"Tone: tense",
		"Dialogue style: rapid-fire",
	}, "\n")
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestBuildRejectsMissingFocus(t *testing.T) {
	if _, err := Build(domain.QueryTypePoetry, "", nil); !errors.Is(err, ErrFocusRequired) {
		t.Fatalf("Build error = %v, want ErrFocusRequired", err)
	}
}

func TestBuildRejectsUnknownQueryType(t *testing.T) {
	if _, err := Build(domain.QueryType("screenplay"), "poem", nil); !errors.Is(err, ErrUnknownQueryType) {
		t.Fatalf("Build error = %v, want ErrUnknownQueryType", err)
	}
}

func TestBuildRejectsUnknownFocusArea(t *testing.T) {
	if _, err := Build(domain.QueryTypePoetry, "sonnet-generator", nil); !errors.Is(err, ErrUnknownFocusArea) {
		t.Fatalf("Build error = %v, want ErrUnknownFocusArea", err)
	}
}

func TestCatalogFieldsHaveLabels(t *testing.T) {
	for _, cat := range Catalog() {
		for _, opt := range cat.Options {
			for _, key := range opt.Fields {
				if cat.label(key) == "" {
					t.Fatalf("category %s option %s references unlabeled field %q", cat.QueryType, opt.Value, key)
				}
			}
		}
	}
}
