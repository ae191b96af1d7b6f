// Package samples holds the test files built into the firmware image. They
// are used when no SD card is present and by the host tools for dry runs.
package samples

import (
	"embed"

	"github.com/Tamagotono/CycleTester/pkg/storage"
)

//go:embed TEST_*.yaml
var files embed.FS

// Volume returns the built-in tests as a read-only volume.
func Volume() *storage.FS {
	return storage.NewFS(files, ".")
}
