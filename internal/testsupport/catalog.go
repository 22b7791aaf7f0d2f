package testsupport

import (
	"testing"

	"lightbox/internal/catalog"
	"lightbox/internal/config"
)

// MustOpenCatalog opens a catalog for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		cat.Close()
	})
	return cat
}
