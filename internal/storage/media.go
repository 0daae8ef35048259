package storage

import (
	"fmt"
	"strings"
)

// MediaKind names the slot a media file fills on a site or version.
type MediaKind string

const (
	KindWebCover     MediaKind = "web-cover"
	KindWebRecord    MediaKind = "web-record"
	KindMobileCover  MediaKind = "mobile-cover"
	KindMobileRecord MediaKind = "mobile-record"
	KindLogo         MediaKind = "logo"
	KindOGImage      MediaKind = "og-image"
)

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/gif":  ".gif",
}

var videoTypes = map[string]string{
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

var logoTypes = map[string]string{
	"image/png":     ".png",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
}

// ParseMediaKind validates a kind name.
func ParseMediaKind(s string) (MediaKind, error) {
	k := MediaKind(s)
	if k.types() == nil {
		return "", fmt.Errorf("unknown media kind %q", s)
	}
	return k, nil
}

// Extension returns the file extension for contentType, or an error when
// the kind does not accept that type.
func (k MediaKind) Extension(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := k.types()[ct]
	if !ok {
		return "", fmt.Errorf("content type %q not allowed for %s", contentType, k)
	}
	return ext, nil
}

func (k MediaKind) types() map[string]string {
	switch k {
	case KindWebCover, KindMobileCover, KindOGImage:
		return imageTypes
	case KindWebRecord, KindMobileRecord:
		return videoTypes
	case KindLogo:
		return logoTypes
	}
	return nil
}
