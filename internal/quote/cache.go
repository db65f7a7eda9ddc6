package quote

import (
	"fmt"

	"storal-pricer/internal/engine"
)

// CacheKey identifies a request priced against one catalog version.
func CacheKey(version string, req engine.Request) string {
	return fmt.Sprintf("quote:%s:%s:%d:%d:%s", version, req.ModelID, req.Width, req.Projection, req.Options.Flags())
}
