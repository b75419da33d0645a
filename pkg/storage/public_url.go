package storage

import "strings"

// PublicURLResolver maps stored object names to publicly resolvable URLs.
// Resolution is pure: once an object has been uploaded its URL never fails.
type PublicURLResolver struct {
	baseURL string
}

// NewPublicURLResolver constructs a resolver rooted at the given base URL.
func NewPublicURLResolver(baseURL string) *PublicURLResolver {
	return &PublicURLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve returns the public URL for an object name.
func (r *PublicURLResolver) Resolve(name string) string {
	return r.baseURL + "/" + strings.TrimLeft(name, "/")
}

// ObjectName extracts the object name back out of a public URL produced by
// this resolver. It returns "" when the URL does not belong to the resolver.
func (r *PublicURLResolver) ObjectName(url string) string {
	prefix := r.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
