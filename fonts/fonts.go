// Package fonts resolves CSS like font families and styles to
// OpenType faces, and converts text to glyph outlines.
// The Go fonts are always available; more faces may be
// loaded from a directory.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// Style selects a face inside a family.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic

	Regular Style = 0
)

const nbStyles = 4

// ParseStyle reads a CSS like style description, such as
// "bold", "italic", "bold italic" or "700".
// Unknown words are ignored.
func ParseStyle(s string) Style {
	var st Style
	for _, word := range strings.Fields(strings.ToLower(s)) {
		switch word {
		case "bold", "bolder", "black", "heavy", "semibold", "demibold", "extrabold":
			st |= Bold
		case "italic", "oblique":
			st |= Italic
		default:
			if w, err := strconv.Atoi(word); err == nil && w >= 600 {
				st |= Bold
			}
		}
	}
	return st
}

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Bold | Italic:
		return "bold italic"
	default:
		return "normal"
	}
}

// family stores the faces of a family, indexed by Style.
// Missing styles fall back to the regular face.
type family [nbStyles]*sfnt.Font

func (f family) face(st Style) *sfnt.Font {
	if face := f[st]; face != nil {
		return face
	}
	if face := f[st&Bold]; face != nil { // drop italic first
		return face
	}
	for _, face := range f {
		if face != nil {
			return face
		}
	}
	return nil
}

// Book is a safe for concurrent use collection of font families.
type Book struct {
	mu       sync.RWMutex
	families map[string]*family // lower case names
	aliases  map[string]bool    // names still pointing to a built in family
}

const (
	goSans = "go"
	goMono = "go mono"
)

// aliases of the built in families
var (
	sansAliases = []string{"sans-serif", "serif", "system-ui", "arial", "helvetica", "verdana", "tahoma", "times new roman"}
	monoAliases = []string{"monospace", "courier", "courier new", "consolas"}
)

func mustParse(data []byte) *sfnt.Font {
	f, err := sfnt.Parse(data)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded font: %s", err))
	}
	return f
}

// NewBook returns a book with the Go fonts registered, under their
// names and under common family names and generic CSS families.
func NewBook() *Book {
	b := &Book{families: make(map[string]*family), aliases: make(map[string]bool)}
	sans := &family{
		Regular:       mustParse(goregular.TTF),
		Bold:          mustParse(gobold.TTF),
		Italic:        mustParse(goitalic.TTF),
		Bold | Italic: mustParse(gobolditalic.TTF),
	}
	mono := &family{
		Regular:       mustParse(gomono.TTF),
		Bold:          mustParse(gomonobold.TTF),
		Italic:        mustParse(gomonoitalic.TTF),
		Bold | Italic: mustParse(gomonobolditalic.TTF),
	}
	b.families[goSans] = sans
	b.families[goMono] = mono
	for _, name := range sansAliases {
		b.families[name] = sans
		b.aliases[name] = true
	}
	for _, name := range monoAliases {
		b.families[name] = mono
		b.aliases[name] = true
	}
	return b
}

// Register adds (or replaces) the face for `name` and `style`.
func (b *Book) Register(name string, style Style, face *sfnt.Font) {
	name = strings.ToLower(strings.TrimSpace(name))
	b.mu.Lock()
	defer b.mu.Unlock()
	fam := b.families[name]
	if fam == nil || b.aliases[name] {
		// a loaded font shadows the alias
		fam = new(family)
		b.families[name] = fam
		delete(b.aliases, name)
	}
	fam[style] = face
}

// LoadDir registers the TrueType and OpenType files found in `dir`
// (not recursively), using the family and sub family names stored in the files.
// It returns the number of faces registered.
func (b *Book) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var (
		buf sfnt.Buffer
		nb  int
	)
	for _, entry := range entries {
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".ttf", ".otf":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nb, err
		}
		face, err := sfnt.Parse(data)
		if err != nil {
			return nb, fmt.Errorf("font %s: %w", entry.Name(), err)
		}
		name, err := face.Name(&buf, sfnt.NameIDFamily)
		if err != nil {
			return nb, fmt.Errorf("font %s: missing family name: %w", entry.Name(), err)
		}
		subfamily, _ := face.Name(&buf, sfnt.NameIDSubfamily)
		b.Register(name, ParseStyle(subfamily), face)
		nb++
	}
	return nb, nil
}

// Face resolves `families`, a comma separated list of family names
// (possibly quoted), returning the first registered one.
// The Go sans serif family is used if none is found.
func (b *Book) Face(families string, style Style) *sfnt.Font {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, name := range strings.Split(families, ",") {
		name = strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
		if fam := b.families[name]; fam != nil {
			if face := fam.face(style); face != nil {
				return face
			}
		}
	}
	return b.families[goSans].face(style)
}
