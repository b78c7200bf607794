package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxSlugProbes bounds the collision probe loop so pathological store
// behaviour cannot spin it forever.
const maxSlugProbes = 100

// ErrSlugExhausted is returned when every probed suffix was taken.
var ErrSlugExhausted = errors.New("slug allocation exhausted")

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug candidate from a human title:
// lowercase, runs of non-alphanumerics collapse to a single hyphen,
// leading and trailing hyphens are trimmed.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = reNonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "form"
	}
	return slug
}

// SlugProber checks slug existence in the store.
type SlugProber interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// AllocateSlug probes the store for a free slug starting from base, then
// base-1, base-2, and so on. It returns only after observing the slug as
// free at read time; the create path still retries on a unique-constraint
// rejection since two concurrent allocations can observe the same slug.
func AllocateSlug(ctx context.Context, store SlugProber, base string) (string, error) {
	candidate := base
	counter := 1
	for probes := 0; probes < maxSlugProbes; probes++ {
		exists, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
		counter++
	}
	return "", ErrSlugExhausted
}
