package app

import (
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"slices"
	"strings"
)

// assetTypes are the content types served for files under web/static when
// the host has none registered.
var assetTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".png":   "image/png",
	".woff2": "font/woff2",
}

// registerAssetTypes registers a content type for every extension found in
// fsys and returns the extensions it has no type for.
func registerAssetTypes(fsys fs.FS, logger *slog.Logger) []string {
	var unknown []string
	_ = fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(path.Ext(name))
		if ext == "" {
			return nil
		}
		typ, ok := assetTypes[ext]
		if !ok {
			if mime.TypeByExtension(ext) == "" && !slices.Contains(unknown, ext) {
				unknown = append(unknown, ext)
			}
			return nil
		}
		if mime.TypeByExtension(ext) != "" {
			return nil
		}
		if err := mime.AddExtensionType(ext, typ); err != nil && logger != nil {
			logger.Warn("register asset type", slog.String("ext", ext), slog.Any("error", err))
		}
		return nil
	})
	if len(unknown) > 0 && logger != nil {
		logger.Warn("static assets without a content type", slog.Any("extensions", unknown))
	}
	return unknown
}
