package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/merr"
)

var placeholder = regexp.MustCompile(`\{[^{}]+\}`)

// compileKeyFormat turns a human-authored sort-key-format string such as
// "{dish}#{step}" into a regular expression that matches literal keys of
// that shape: each "{name}" placeholder becomes a greedy run of
// non-"#" characters, and everything else (the "#" delimiters) is matched
// literally, per validate_schema_format in the original system's
// src/schema.rs.
func compileKeyFormat(format string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	rest := format
	for {
		loc := placeholder.FindStringIndex(rest)
		if loc == nil {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		b.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		b.WriteString(`[^#]+`)
		rest = rest[loc[1]:]
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile key format %q: %w", format, err)
	}
	return re, nil
}

// ValidateKey checks key against info's sort-key-format, if it has one.
// A schema with no SortKeyFormat always passes — the key-format check is
// an additional gate on an already-valid write, never a substitute for
// the catalog's typed-attribute validation.
func ValidateKey(info kv.PartitionSchemaInfo, key string) error {
	if !info.HasKeyFormat() {
		return nil
	}
	re, err := compileKeyFormat(info.SortKeyFormat)
	if err != nil {
		return merr.Internal("compile key format", err)
	}
	if !re.MatchString(key) {
		return merr.InvalidParams(fmt.Sprintf("key %q does not match format %q for category %q", key, info.SortKeyFormat, info.Prefix), nil)
	}
	return nil
}
