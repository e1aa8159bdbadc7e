// package paths renders output paths for processed files from
// user-supplied patterns like "{artist}/{year} - {album}/{track:02d} - {title}".
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// MaxPathLength caps the rendered relative path. Longer paths are
// shortened by truncating the final (title) segment.
const MaxPathLength = 250

// Unknown substitutes for placeholders whose tag is absent.
const Unknown = "Unknown"

// DefaultPattern mirrors the conventional artist/album/track layout.
const DefaultPattern = "{artist}/{year} - {album}/{track:02d} - {title}"

// placeholderTags maps pattern placeholder names to tag store names.
var placeholderTags = map[string]string{
	"artist":      models.TagArtist,
	"albumartist": models.TagAlbumArtist,
	"album":       models.TagAlbum,
	"title":       models.TagTitle,
	"year":        models.TagYear,
	"date":        models.TagDate,
	"track":       models.TagTrackNumber,
	"disc":        models.TagDiscNumber,
	"genre":       models.TagGenre,
}

// sanitizer strips characters that are unsafe in file names on common
// filesystems.
var sanitizer = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_",
	":", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

type token struct {
	literal string
	field   string
	width   int // zero-padded width for numeric placeholders, 0 = none
}

// Pattern is a parsed output path template.
type Pattern struct {
	raw    string
	tokens []token
}

// Parse compiles a pattern string, validating placeholder names and
// format specifiers up front so bad patterns fail before any file work.
func Parse(raw string) (*Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty pattern", shared.ErrBadPattern)
	}

	p := &Pattern{raw: raw}
	var literal strings.Builder
	rest := raw

	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			literal.WriteString(rest)
			break
		}

		literal.WriteString(rest[:open])
		rest = rest[open+1:]

		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return nil, fmt.Errorf("%w: unclosed placeholder in %q", shared.ErrBadPattern, raw)
		}

		spec := rest[:closing]
		rest = rest[closing+1:]

		field, width, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}

		if literal.Len() > 0 {
			p.tokens = append(p.tokens, token{literal: literal.String()})
			literal.Reset()
		}
		p.tokens = append(p.tokens, token{field: field, width: width})
	}

	if literal.Len() > 0 {
		p.tokens = append(p.tokens, token{literal: literal.String()})
	}

	if err := p.checkSegments(); err != nil {
		return nil, err
	}

	return p, nil
}

func parseSpec(spec string) (field string, width int, err error) {
	field = spec
	format := ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		field, format = spec[:i], spec[i+1:]
	}

	if _, ok := placeholderTags[field]; !ok {
		return "", 0, fmt.Errorf("%w: unknown placeholder %q", shared.ErrBadPattern, field)
	}

	if format == "" {
		return field, 0, nil
	}

	// only zero-padded decimal widths like 02d are supported
	if len(format) < 2 || format[0] != '0' || format[len(format)-1] != 'd' {
		return "", 0, fmt.Errorf("%w: unsupported format %q for %q", shared.ErrBadPattern, format, field)
	}

	for _, r := range format[1 : len(format)-1] {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("%w: unsupported format %q for %q", shared.ErrBadPattern, format, field)
		}
		width = width*10 + int(r-'0')
	}

	if width == 0 {
		return "", 0, fmt.Errorf("%w: unsupported format %q for %q", shared.ErrBadPattern, format, field)
	}

	return field, width, nil
}

// checkSegments rejects patterns whose literal structure escapes the
// output root via "." or ".." segments or absolute paths.
func (p *Pattern) checkSegments() error {
	var rendered strings.Builder
	for _, tok := range p.tokens {
		if tok.literal != "" {
			rendered.WriteString(tok.literal)
		} else {
			rendered.WriteString("x")
		}
	}

	shape := rendered.String()
	if strings.HasPrefix(shape, "/") || strings.HasPrefix(shape, `\`) {
		return fmt.Errorf("%w: pattern must be relative", shared.ErrBadPattern)
	}

	for _, seg := range strings.Split(shape, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: invalid path segment in %q", shared.ErrBadPattern, p.raw)
		}
	}

	return nil
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// Resolve renders the pattern against a tag store and appends ext
// (including its dot). Missing tags become "Unknown"; numeric format
// specifiers applied to non-numeric values are an error.
func (p *Pattern) Resolve(store *models.Store, ext string) (string, error) {
	var b strings.Builder

	for _, tok := range p.tokens {
		if tok.field == "" {
			b.WriteString(tok.literal)
			continue
		}

		value, err := p.render(tok, store)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
	}

	rel := filepath.ToSlash(b.String()) + ext
	return capLength(rel, ext), nil
}

func (p *Pattern) render(tok token, store *models.Store) (string, error) {
	tagName := placeholderTags[tok.field]

	tag, ok := store.Get(tagName)
	if !ok && tok.field == "year" {
		// fall back to the leading year of the date tag
		if date, has := store.Get(models.TagDate); has {
			s := date.String()
			if len(s) >= 4 {
				return sanitize(s[:4]), nil
			}
		}
	}

	if !ok {
		return Unknown, nil
	}

	if tok.width > 0 {
		n, numeric := tag.IntValue()
		if !numeric {
			return "", fmt.Errorf("%w: %q is not numeric for {%s:0%dd}",
				shared.ErrPathResolution, tag.String(), tok.field, tok.width)
		}
		return fmt.Sprintf("%0*d", tok.width, n), nil
	}

	s := tag.String()
	if s == "" {
		return Unknown, nil
	}

	return sanitize(s), nil
}

func sanitize(s string) string {
	clean := strings.TrimSpace(sanitizer.Replace(s))
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return Unknown
	}
	return clean
}

// capLength shortens over-long paths by trimming the base name of the
// final segment, preserving the extension.
func capLength(rel, ext string) string {
	if len(rel) <= MaxPathLength {
		return rel
	}

	dir, base := filepath.Split(rel)
	stem := strings.TrimSuffix(base, ext)

	budget := MaxPathLength - len(dir) - len(ext)
	if budget < 1 {
		budget = 1
	}
	if budget < len(stem) {
		stem = strings.TrimSpace(stem[:budget])
		if stem == "" {
			stem = "_"
		}
	}

	return dir + stem + ext
}

// Resolver renders final destination paths under an output root,
// suffixing " (n)" on collisions.
type Resolver struct {
	pattern *Pattern
	root    string
	exists  func(string) bool
}

// NewResolver creates a resolver rooted at root. exists reports whether
// an absolute path is already taken; pass nil to skip collision checks.
func NewResolver(pattern *Pattern, root string, exists func(string) bool) *Resolver {
	return &Resolver{pattern: pattern, root: root, exists: exists}
}

// Resolve returns the absolute destination path for the store's tags,
// adjusted for collisions with existing files.
func (r *Resolver) Resolve(store *models.Store, ext string) (string, error) {
	rel, err := r.pattern.Resolve(store, ext)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(r.root, filepath.FromSlash(rel))
	if r.exists == nil || !r.exists(dest) {
		return dest, nil
	}

	stem := strings.TrimSuffix(dest, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !r.exists(candidate) {
			return candidate, nil
		}
	}
}
