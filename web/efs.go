package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed build/*
var distFS embed.FS

// GetFileSystem returns the static files to serve. A non-empty dir serves from disk
// so the pages can be edited without rebuilding.
func GetFileSystem(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(distFS, "build")
}
