// Package attach processes message attachments: classification by file
// signature, blob persistence via the storage collaborator, and
// best-effort thumbnailing for images.
package attach

import (
	"bytes"
	"strings"

	"chatd/pkg/models"
)

// Classify inspects the leading bytes of data and buckets the attachment
// into one of the five kinds. The client-supplied name is only consulted
// when the signature is inconclusive.
func Classify(name string, data []byte) models.AttachmentKind {
	if k, ok := classifySignature(data); ok {
		return k
	}
	return classifyExtension(name)
}

func classifySignature(data []byte) (models.AttachmentKind, bool) {
	if len(data) < 12 {
		return models.KindOther, false
	}
	switch {
	// images
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}),
		bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}),
		bytes.HasPrefix(data, []byte("GIF8")),
		bytes.HasPrefix(data, []byte("BM")),
		isRIFF(data, "WEBP"):
		return models.KindImage, true
	// audio
	case bytes.HasPrefix(data, []byte("ID3")),
		bytes.HasPrefix(data, []byte{0xFF, 0xFB}),
		bytes.HasPrefix(data, []byte{0xFF, 0xF3}),
		bytes.HasPrefix(data, []byte("OggS")),
		bytes.HasPrefix(data, []byte("fLaC")),
		isRIFF(data, "WAVE"):
		return models.KindAudio, true
	// video
	case bytes.Equal(data[4:8], []byte("ftyp")),
		bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}),
		isRIFF(data, "AVI "):
		return models.KindVideo, true
	// documents
	case bytes.HasPrefix(data, []byte("%PDF")),
		bytes.HasPrefix(data, []byte("PK\x03\x04")),
		bytes.HasPrefix(data, []byte("{\\rtf")),
		bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return models.KindDocument, true
	}
	return models.KindOther, false
}

func isRIFF(data []byte, form string) bool {
	return bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte(form))
}

func classifyExtension(name string) models.AttachmentKind {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return models.KindOther
	}
	switch strings.ToLower(name[i+1:]) {
	case "jpg", "jpeg", "png", "gif", "webp", "bmp":
		return models.KindImage
	case "mp3", "ogg", "flac", "wav", "m4a":
		return models.KindAudio
	case "mp4", "mkv", "webm", "avi", "mov":
		return models.KindVideo
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf", "odt":
		return models.KindDocument
	}
	return models.KindOther
}
