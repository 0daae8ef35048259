// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns site titles and URLs into URL-friendly slugs and
// resolves collisions against existing ones.
package slug

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MaxLength caps generated slugs, before any collision suffix.
const MaxLength = 80

// maxAttempts bounds the collision search in Unique.
const maxAttempts = 100

var (
	// separators become hyphens so "linear.app" keeps its word boundary.
	separators = regexp.MustCompile(`[\s._/]+`)
	// nonSlug matches anything that isn't a letter, digit, or hyphen.
	nonSlug = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Linear.app, 2026 edition" → "linear-app-2026-edition"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = separators.ReplaceAllString(result, "-")
	result = nonSlug.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}

// FromURL derives a slug from the host of rawURL, dropping a leading
// "www.". Returns "" when rawURL has no host.
func FromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return Generate(strings.TrimPrefix(u.Hostname(), "www."))
}

// Unique returns base, or base with the smallest numeric suffix ("-2",
// "-3", ...) for which exists reports false.
func Unique(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	if base == "" {
		return "", fmt.Errorf("slug: empty base")
	}

	candidate := base
	for i := 2; i < maxAttempts+2; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug exists: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", fmt.Errorf("slug: no free variant of %q", base)
}
