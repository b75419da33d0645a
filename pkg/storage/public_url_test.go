package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURLResolverResolve(t *testing.T) {
	resolver := NewPublicURLResolver("http://cdn.example.com/files/")

	url := resolver.Resolve("notices/1700000000-abcd1234.pdf")
	assert.Equal(t, "http://cdn.example.com/files/notices/1700000000-abcd1234.pdf", url)
}

func TestPublicURLResolverRoundTrip(t *testing.T) {
	resolver := NewPublicURLResolver("http://localhost:8080/files")

	name := "notices/1700000000-abcd1234.pdf"
	url := resolver.Resolve(name)
	assert.Equal(t, name, resolver.ObjectName(url))
}

func TestPublicURLResolverForeignURL(t *testing.T) {
	resolver := NewPublicURLResolver("http://localhost:8080/files")

	assert.Equal(t, "", resolver.ObjectName("http://elsewhere.example.com/files/x.pdf"))
}
