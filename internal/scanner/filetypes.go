package scanner

import (
	"path/filepath"
	"strings"
)

// Image and video types the platform ingests. Documents and audio are
// rejected at discovery time.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
	".tiff": {},
	".tif":  {},
	".heic": {},
	".heif": {},
	".dng":  {},
	".cr2":  {},
	".nef":  {},
	".arw":  {},
	".mp4":  {},
	".m4v":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

// IsSupportedMedia reports whether the path carries a supported image or
// video extension.
func IsSupportedMedia(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := supportedExtensions[ext]
	return ok
}
