package media

import (
	"path"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindFile  Kind = "file"
)

// kindByExt maps lowercase extensions (with dot) to their media kind.
var kindByExt = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".gif":  KindImage,

	".mp4": KindVideo,
	".mov": KindVideo,

	".opus": KindAudio,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".m4a":  KindAudio,
}

// contentTypes maps lowercase extensions to MIME types for serving blobs.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",

	".mp4": "video/mp4",
	".mov": "video/quicktime",

	".opus": "audio/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",

	".pdf": "application/pdf",
	".txt": "text/plain; charset=utf-8",
	".vcf": "text/vcard",
}

// DefaultContentType is served for unknown extensions.
const DefaultContentType = "application/octet-stream"

// KindOf classifies a filename by extension, case-insensitively.
func KindOf(name string) Kind {
	if k, ok := kindByExt[strings.ToLower(path.Ext(name))]; ok {
		return k
	}
	return KindFile
}

func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return DefaultContentType
}
