package incidents

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Localized fields of an incident code.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
)

// Localization is the human readable text of an incident.
type Localization struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Catalog holds incident texts keyed by "<code>.<field>", optionally
// suffixed with "_<lang>" or "_<lang>_<COUNTRY>".
type Catalog struct {
	texts map[string]string
}

// NewCatalog creates a Catalog from already loaded texts.
func NewCatalog(texts map[string]string) *Catalog {
	if texts == nil {
		texts = make(map[string]string)
	}
	return &Catalog{
		texts: texts,
	}
}

// LoadCatalog reads a YAML document mapping keys to texts.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	bytes, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	texts := make(map[string]string)
	if err := yaml.Unmarshal(bytes, &texts); err != nil {
		return nil, errors.Wrap(err, "failed to parse incident texts")
	}
	return NewCatalog(texts), nil
}

// Merge adds the texts of the other catalog, replacing duplicate keys.
func (c *Catalog) Merge(other *Catalog) {
	for k, v := range other.texts {
		c.texts[k] = v
	}
}

// Lookup returns the text stored under the key.
func (c *Catalog) Lookup(key string) (string, bool) {
	text, ok := c.texts[key]
	return text, ok
}

// KeyChain returns the keys to try for a field, most specific locale
// first. A locale is written "de_DE", "de-DE" or "de".
func KeyChain(code, field, locale string) []string {
	base := code + "." + field
	locale = strings.Replace(locale, "-", "_", -1)
	parts := strings.SplitN(locale, "_", 2)

	var keys []string
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		keys = append(keys, base+"_"+strings.ToLower(parts[0])+"_"+strings.ToUpper(parts[1]))
	}
	if parts[0] != "" {
		keys = append(keys, base+"_"+strings.ToLower(parts[0]))
	}
	return append(keys, base)
}

// Localize resolves the title and description of the code for the
// locale, and fills in the parameters. Resolved texts are cached for the
// lifetime of the process.
func (s *Service) Localize(code, locale string, parameters map[string]string) (Localization, error) {
	title, err := s.resolve(code, FieldTitle, locale)
	if err != nil {
		return Localization{}, err
	}
	description, err := s.resolve(code, FieldDescription, locale)
	if err != nil {
		return Localization{}, err
	}
	return Localization{
		Title:       substitute(title, parameters),
		Description: substitute(description, parameters),
	}, nil
}

func (s *Service) resolve(code, field, locale string) (string, error) {
	cacheKey := code + "." + field + "@" + locale
	if text, ok := s.cache.Load(cacheKey); ok {
		return text, nil
	}
	// Two goroutines may both miss and resolve the same key, they store
	// the same text.
	for _, key := range KeyChain(code, field, locale) {
		if text, ok := s.catalog.Lookup(key); ok {
			s.cache.Store(cacheKey, text)
			return text, nil
		}
	}
	return "", errors.Wrapf(errNoText, "%s.%s", code, field)
}

var errNoText = errors.New("no localization")

// IsNoText reports whether the error was caused by a code without text.
func IsNoText(err error) bool {
	return errors.Cause(err) == errNoText
}

func substitute(text string, parameters map[string]string) string {
	for k, v := range parameters {
		text = strings.Replace(text, "{{"+k+"}}", v, -1)
	}
	return text
}
