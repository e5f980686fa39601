package attach

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"chatd/pkg/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestClassifySignatures(t *testing.T) {
	pad := func(b []byte) []byte {
		for len(b) < 16 {
			b = append(b, 0)
		}
		return b
	}
	cases := []struct {
		name string
		data []byte
		want models.AttachmentKind
	}{
		{"photo.bin", pad([]byte{0xFF, 0xD8, 0xFF, 0xE0}), models.KindImage},
		{"pic", pngBytes(t, 2, 2), models.KindImage},
		{"song.bin", pad([]byte("ID3\x04anything")), models.KindAudio},
		{"track", pad([]byte("OggSrest")), models.KindAudio},
		{"doc.bin", pad([]byte("%PDF-1.7")), models.KindDocument},
		{"archive", pad([]byte("PK\x03\x04rest")), models.KindDocument},
		{"mystery.bin", pad([]byte("nothing recognizable")), models.KindOther},
	}
	for _, c := range cases {
		if got := Classify(c.name, c.data); got != c.want {
			t.Errorf("Classify(%s) = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestClassifyExtensionFallback(t *testing.T) {
	// too short for signature detection, so the name decides
	if got := Classify("clip.mp4", []byte{1, 2, 3}); got != models.KindVideo {
		t.Fatalf("Classify(clip.mp4) = %s, want video", got)
	}
	if got := Classify("NOTES.PDF", nil); got != models.KindDocument {
		t.Fatalf("Classify(NOTES.PDF) = %s, want document", got)
	}
	if got := Classify("noext", nil); got != models.KindOther {
		t.Fatalf("Classify(noext) = %s, want other", got)
	}
}

func TestProcessorStoresBlobAndThumbnail(t *testing.T) {
	blobs := NewMemoryBlobs()
	p := &Processor{Blobs: blobs, ThumbnailMaxPx: 8}

	data := pngBytes(t, 64, 32)
	desc, err := p.Process(&models.AttachmentUpload{Name: "pic.png", Data: data})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if desc.Kind != models.KindImage || desc.Size != int64(len(data)) {
		t.Fatalf("descriptor wrong: %+v", desc)
	}
	if _, ok := blobs.Get(desc.URL); !ok {
		t.Fatalf("blob not stored at %s", desc.URL)
	}
	if desc.Thumbnail == "" {
		t.Fatal("expected a thumbnail for an image upload")
	}
	if _, ok := blobs.Get(desc.Thumbnail); !ok {
		t.Fatalf("thumbnail not stored at %s", desc.Thumbnail)
	}
}

func TestProcessorThumbnailFailureIsTransient(t *testing.T) {
	p := &Processor{Blobs: NewMemoryBlobs(), ThumbnailMaxPx: 8}

	// an image by name but with undecodable bytes still yields a descriptor
	desc, err := p.Process(&models.AttachmentUpload{Name: "broken.png", Data: []byte("not an image")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if desc.URL == "" {
		t.Fatal("blob must be stored even when thumbnailing fails")
	}
	if desc.Thumbnail != "" {
		t.Fatal("no thumbnail expected for undecodable data")
	}
}

func TestProcessorSizeCap(t *testing.T) {
	p := &Processor{Blobs: NewMemoryBlobs(), MaxUploadBytes: 4}
	desc, err := p.Process(&models.AttachmentUpload{Name: "big.bin", Data: []byte("way too large")})
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size cap error, got %v", err)
	}
	if desc == nil || desc.URL != "" {
		t.Fatal("oversized upload must not reach the blob store but still describe itself")
	}
}
