package common

import (
	"path/filepath"
	"strings"
)

// ImageType is the stored format of a listing image.
type ImageType string

const (
	ImageTypeJPEG ImageType = "jpeg"
	ImageTypePNG  ImageType = "png"
	ImageTypeGIF  ImageType = "gif"
	ImageTypeWebP ImageType = "webp"
)

// String returns the string representation
func (it ImageType) String() string {
	return string(it)
}

func (it ImageType) IsValid() bool {
	switch it {
	case ImageTypeJPEG, ImageTypePNG, ImageTypeGIF, ImageTypeWebP:
		return true
	}
	return false
}

func (it ImageType) MimeType() string {
	return "image/" + string(it)
}

// DetectImageType maps a MIME type to an ImageType. Unknown values return "".
func DetectImageType(mimeType string) ImageType {
	lower := strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(lower, "image/") {
		return ""
	}
	switch strings.TrimPrefix(lower, "image/") {
	case "jpeg", "jpg", "pjpeg":
		return ImageTypeJPEG
	case "png":
		return ImageTypePNG
	case "gif":
		return ImageTypeGIF
	case "webp":
		return ImageTypeWebP
	}
	return ""
}

// ImageTypeFromFilename falls back to JPEG for unknown extensions.
func ImageTypeFromFilename(name string) ImageType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return ImageTypePNG
	case ".gif":
		return ImageTypeGIF
	case ".webp":
		return ImageTypeWebP
	}
	return ImageTypeJPEG
}
