// Package soql builds Salesforce query language expressions from trusted
// field names and untrusted values. Values are either validated record ids or
// escaped string literals, never raw interpolations.
package soql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidValue is the cause of every error returned for a value that cannot
// be safely placed in a query.
var ErrInvalidValue = errors.New("invalid query value")

var (
	idPattern   = regexp.MustCompile(`^[a-zA-Z0-9]{15}([a-zA-Z0-9]{3})?$`)
	namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,79}$`)
	pathPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,79}(\.[A-Za-z][A-Za-z0-9_]{0,79})*$`)
)

// ValidID reports whether s is a 15 or 18 character record id.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

// ValidName reports whether s is a plain object or field api name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidField reports whether s is a field api name or a dotted relationship
// path.
func ValidField(s string) bool {
	return pathPattern.MatchString(s)
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

var likeEscaper = strings.NewReplacer(`%`, `\%`, `_`, `\_`)

// Quote returns s as a single quoted string literal.
func Quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// Contains returns a LIKE literal matching any value containing s. Wildcards
// in s match literally.
func Contains(s string) string {
	return "'%" + likeEscaper.Replace(literalEscaper.Replace(s)) + "%'"
}

// Query accumulates a SELECT statement. The first invalid value stops the
// builder and is reported by Build.
type Query struct {
	fields  []string
	object  string
	where   []string
	orderBy string
	limit   int
	err     error
}

// Select starts a query for the given fields.
func Select(fields ...string) *Query {
	q := &Query{fields: fields}

	for _, f := range fields {
		if !pathPattern.MatchString(f) {
			q.fail("field", f)
		}
	}

	return q
}

func (q *Query) fail(what, value string) {
	if q.err == nil {
		q.err = errors.Wrapf(ErrInvalidValue, "%s %q", what, value)
	}
}

// From sets the queried object.
func (q *Query) From(object string) *Query {
	if !ValidName(object) {
		q.fail("object", object)
	}

	q.object = object
	return q
}

// WhereID adds "field = 'id'" after validating id as a record id.
func (q *Query) WhereID(field, id string) *Query {
	if !pathPattern.MatchString(field) {
		q.fail("field", field)
	}

	if !ValidID(id) {
		q.fail(field, id)
		return q
	}

	q.where = append(q.where, fmt.Sprintf("%s = '%s'", field, id))
	return q
}

// WhereEquals adds "field = 'value'" with value escaped.
func (q *Query) WhereEquals(field, value string) *Query {
	if !pathPattern.MatchString(field) {
		q.fail("field", field)
	}

	q.where = append(q.where, fmt.Sprintf("%s = %s", field, Quote(value)))
	return q
}

// WhereBool adds "field = true|false".
func (q *Query) WhereBool(field string, value bool) *Query {
	if !pathPattern.MatchString(field) {
		q.fail("field", field)
	}

	q.where = append(q.where, fmt.Sprintf("%s = %s", field, strconv.FormatBool(value)))
	return q
}

// WhereAnyContains adds a parenthesized OR of "field LIKE '%term%'" for every
// field.
func (q *Query) WhereAnyContains(term string, fields ...string) *Query {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		if !pathPattern.MatchString(f) {
			q.fail("field", f)
		}

		parts = append(parts, fmt.Sprintf("%s LIKE %s", f, Contains(term)))
	}

	if len(parts) > 0 {
		q.where = append(q.where, "("+strings.Join(parts, " OR ")+")")
	}

	return q
}

// OrderBy sets the ORDER BY clause. The clause comes from code, not callers.
func (q *Query) OrderBy(clause string) *Query {
	q.orderBy = clause
	return q
}

// Limit sets the row limit. Zero leaves the query unbounded.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Build renders the statement.
func (q *Query) Build() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	if len(q.fields) == 0 || q.object == "" {
		return "", errors.New("query needs fields and an object")
	}

	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(q.fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(q.object)

	if len(q.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.where, " AND "))
	}

	if q.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.orderBy)
	}

	if q.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.limit))
	}

	return sb.String(), nil
}
