// Package frontmatter splits a content file's leading metadata block from its
// markdown body and coerces the metadata into the typed domain frontmatter.
//
// Parsing is lenient: content files are authored by site operators,
// so a malformed or unterminated metadata block yields an empty metadata map
// and the entire input as body, never an error. Errors are reserved for the
// repository-level write contract.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	adrg "github.com/adrg/frontmatter"
	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"github.com/dfryer1193/inkpress/blog/domain"
)

var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Split separates the delimited metadata block from the body. A missing block
// yields an empty map and the whole input as body; a malformed block does the
// same and records a warning.
func Split(raw []byte) (map[string]any, []byte, []string) {
	meta := map[string]any{}

	body, err := adrg.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return map[string]any{}, raw, []string{fmt.Sprintf("malformed frontmatter block: %v", err)}
	}
	if meta == nil {
		meta = map[string]any{}
	}

	return meta, body, nil
}

// Parse splits raw file text and coerces the metadata in one step.
func Parse(raw []byte) (domain.Frontmatter, string, []string) {
	meta, body, warnings := Split(raw)
	return Coerce(meta), string(body), warnings
}

// Coerce builds a typed frontmatter from loosely-typed metadata. Required
// fields are defaulted so downstream code never null-checks them: title falls
// back to "Untitled" and date is normalized to YYYY-MM-DD when parseable,
// passed through as-is otherwise.
func Coerce(meta map[string]any) domain.Frontmatter {
	fm := domain.Frontmatter{
		Title:      stringValue(meta["title"]),
		Date:       NormalizeDate(meta["date"]),
		Author:     stringValue(meta["author"]),
		Summary:    stringValue(meta["summary"]),
		Canonical:  stringValue(meta["canonical"]),
		Image:      stringValue(meta["image"]),
		Category:   stringValue(meta["category"]),
		Tags:       stringSlice(meta["tags"]),
		AIReadable: true,
	}

	if fm.Title == "" {
		fm.Title = "Untitled"
	}
	if v, ok := meta["featured"].(bool); ok {
		fm.Featured = v
	}
	if v, ok := meta["ai_readable"].(bool); ok {
		fm.AIReadable = v
	}

	return fm
}

// Serialize writes frontmatter and body back into the delimited file format.
// The inverse of Parse for all typed fields.
func Serialize(fm domain.Frontmatter, body string) ([]byte, error) {
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// NormalizeDate coerces a metadata date value to YYYY-MM-DD. Values that
// already match are returned unchanged; parseable strings are reformatted;
// anything else passes through as-is rather than being rejected.
func NormalizeDate(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format("2006-01-02")
	case string:
		if isoDateRegex.MatchString(v) {
			return v
		}
		if v == "" {
			return ""
		}
		parsed, err := dateparse.ParseAny(v)
		if err != nil {
			return v
		}
		return parsed.Format("2006-01-02")
	default:
		return NormalizeDate(fmt.Sprint(v))
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			return nil
		}
		return append([]string(nil), v...)
	case []any:
		if len(v) == 0 {
			return nil
		}
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringValue(item))
		}
		return out
	default:
		return nil
	}
}
