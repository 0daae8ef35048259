// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Filter is a condition over the sites table (aliased "s") used by feed
// listings. The concrete variants are And, Search, TagOverlap and Eq.
type Filter interface {
	build(b *whereBuilder) error
}

// And matches rows satisfying every child filter. An empty And matches all.
type And []Filter

// Search matches sites whose title, url, or description contains the text,
// case-insensitively.
type Search string

// TagOverlap matches sites carrying at least one of the tags.
type TagOverlap []uuid.UUID

// Eq matches sites whose column equals Value. Field must be one of the
// columns in eqFields.
type Eq struct {
	Field string
	Value any
}

// eqFields whitelists the site columns that Eq may compare.
var eqFields = map[string]string{
	"is_pinned": "s.is_pinned",
	"rating":    "s.rating",
	"slug":      "s.slug",
}

// whereBuilder accumulates SQL fragments and positional arguments.
type whereBuilder struct {
	parts []string
	args  []any
	next  int
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	p := fmt.Sprintf("$%d", b.next)
	b.next++
	return p
}

// Compile renders f as a SQL boolean expression whose placeholders start at
// $argStart. A nil or empty filter compiles to "TRUE".
func Compile(f Filter, argStart int) (string, []any, error) {
	b := &whereBuilder{next: argStart}
	if f != nil {
		if err := f.build(b); err != nil {
			return "", nil, err
		}
	}
	if len(b.parts) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(b.parts, " AND "), b.args, nil
}

func (f And) build(b *whereBuilder) error {
	for _, child := range f {
		if child == nil {
			continue
		}
		if err := child.build(b); err != nil {
			return err
		}
	}
	return nil
}

func (f Search) build(b *whereBuilder) error {
	p := b.arg("%" + escapeLike(string(f)) + "%")
	b.parts = append(b.parts, fmt.Sprintf(
		"(s.title ILIKE %[1]s OR s.url ILIKE %[1]s OR s.description ILIKE %[1]s)", p,
	))
	return nil
}

func (f TagOverlap) build(b *whereBuilder) error {
	if len(f) == 0 {
		return nil
	}
	p := b.arg(pq.Array(uuidStrings(f)))
	b.parts = append(b.parts, fmt.Sprintf(
		"EXISTS (SELECT 1 FROM site_tags st WHERE st.site_id = s.id AND st.tag_id = ANY(%s::uuid[]))", p,
	))
	return nil
}

func (f Eq) build(b *whereBuilder) error {
	col, ok := eqFields[f.Field]
	if !ok {
		return fmt.Errorf("filter: unsupported field %q", f.Field)
	}
	b.parts = append(b.parts, col+" = "+b.arg(f.Value))
	return nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
