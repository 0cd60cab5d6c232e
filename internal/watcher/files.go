package watcher

import (
	"path/filepath"
	"strings"
)

// Image extensions the gallery imports.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".heif": true,
	".webp": true,
	".gif":  true,
}

// OS-generated files that are never photos.
var ignoredNames = map[string]bool{
	".ds_store":   true,
	"thumbs.db":   true,
	"desktop.ini": true,
}

// IsImage reports whether path names an importable photo.
func IsImage(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if ignoredNames[name] || strings.HasPrefix(name, "._") || strings.HasPrefix(name, ".") {
		return false
	}
	return imageExtensions[filepath.Ext(name)]
}
