// Package sqlgen holds the statement values produced by per-kind generators.
//
// Generators bind values through placeholders ("?") instead of interpolating
// them into the statement text. Inline renders a statement back into the
// literal form with single quotes doubled, which is what ends up in logs.
package sqlgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"userstore.backend/internal/domain/entities"
	domainerrors "userstore.backend/internal/domain/errors"
)

// Statement is a ready-to-execute SQL template and its bound values.
type Statement struct {
	Query string
	Args  []any
}

// New builds a statement from a query and its placeholder values.
func New(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}

// Empty reports whether there is nothing to execute.
func (s Statement) Empty() bool {
	return strings.TrimSpace(s.Query) == ""
}

func (s Statement) String() string {
	return Inline(s)
}

// Generator renders one entity into a statement for a specific operation.
type Generator func(e entities.Entity) Statement

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidIdentifier reports whether name is made of letters, digits and underscores only.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ValidateIdentifier rejects table or column names outside the allow-list.
func ValidateIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: %q", domainerrors.ErrInvalidIdentifier, name)
	}
	return nil
}

// Escape doubles single quotes so s can sit inside a SQL string literal.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Literal renders v as a SQL literal.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + Escape(x) + "'"
	case []byte:
		return "'" + Escape(string(x)) + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "'" + x.UTC().Format(time.RFC3339Nano) + "'"
	case fmt.Stringer:
		return "'" + Escape(x.String()) + "'"
	default:
		return "'" + Escape(fmt.Sprint(x)) + "'"
	}
}

// Inline substitutes every placeholder outside quoted text with the literal
// form of its bound value. Placeholders without a value are left as they are.
func Inline(s Statement) string {
	if len(s.Args) == 0 {
		return s.Query
	}

	var b strings.Builder
	b.Grow(len(s.Query) + 16*len(s.Args))

	next := 0
	inString := false
	for i := 0; i < len(s.Query); i++ {
		c := s.Query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString && next < len(s.Args):
			b.WriteString(Literal(s.Args[next]))
			next++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
