// Package notice holds the user-visible notices raised by the flows and
// renders them in the learner's locale.
package notice

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Key identifies a notice message.
type Key string

const (
	NoInternet          Key = "NO_INTERNET"
	NoInternetTitle     Key = "NO_INTERNET_TITLE"
	NoInternetMessage   Key = "ERROR_NO_INTERNET_MESSAGE"
	CourseNotAvailable  Key = "COURSE_NOT_AVAILABLE"
	ContentNotAvailable Key = "ERROR_CONTENT_NOT_AVAILABLE"
	FetchingFailed      Key = "ERROR_FETCHING_DATA"
	CourseEnrolled      Key = "COURSE_ENROLLED"
	AlreadyEnrolled     Key = "ALREADY_ENROLLED_COURSE"
	EnrollFailed        Key = "ERROR_WHILE_ENROLLING_COURSE"
	CourseEndedOn       Key = "COURSE_ENDED_ON"
	CompleteBy          Key = "COMPLETE_BY"
	CourseEnded         Key = "COURSE_ENDED"
	LastDateToJoin      Key = "LAST_DATE_TO_JOIN"
)

// BaseLocale is the locale every other catalog falls back to.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var localesFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog is the set of loaded locales.
type Catalog struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded locale files.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(localesFS)
	})
	return defaultCatalog, defaultErr
}

// Load builds a catalog from locales/*.yaml in fsys. Keys missing from a
// locale are filled from BaseLocale.
func Load(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	files := map[string]catalogFile{}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", p, err)
		}
		want := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if file.Locale != want {
			return nil, fmt.Errorf("locale %s: declared %q does not match file name", p, file.Locale)
		}
		files[file.Locale] = file
	}

	base, ok := files[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	// The matcher prefers its first tag when nothing matches.
	locales := []string{BaseLocale}
	for locale := range files {
		if locale != BaseLocale {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales[1:])

	c := &Catalog{builder: catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale)))}
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		messages := files[locale].Messages
		for key, value := range base.Messages {
			if translated, ok := messages[key]; ok {
				value = translated
			}
			if err := c.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
		c.tags = append(c.tags, tag)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Translator renders notices for one locale.
type Translator struct {
	locale  language.Tag
	printer *message.Printer
}

// Translator returns a translator for the closest supported locale.
func (c *Catalog) Translator(locale string) *Translator {
	_, index, _ := c.matcher.Match(language.Make(locale))
	tag := c.tags[index]
	return &Translator{
		locale:  tag,
		printer: message.NewPrinter(tag, message.Catalog(c.builder)),
	}
}

// Locale returns the resolved locale.
func (t *Translator) Locale() string {
	return t.locale.String()
}

// Text returns the message for key, or the key itself when unknown.
func (t *Translator) Text(key Key) string {
	return t.printer.Sprintf(string(key))
}

// Format renders the message for key as a template over data.
func (t *Translator) Format(key Key, data map[string]string) string {
	text := t.Text(key)
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New(string(key)).Option("missingkey=zero").Parse(text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}
