package object

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

// plantObject stores a zlib-compressed raw stream at the path the store
// would use for hash h, bypassing Write. Used to fabricate malformed
// objects.
func plantObject(t *testing.T, s *Store, h Hash, raw []byte) {
	t.Helper()
	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress close: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(h[2:])), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const fakeHash = Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	payload := []byte("hello world")

	h, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(h) != HexLen {
		t.Errorf("Hash length: got %d, want %d", len(h), HexLen)
	}

	kind, size, rc, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rc.Close()
	if kind != KindBlob {
		t.Errorf("Kind: got %q, want %q", kind, KindBlob)
	}
	if size != int64(len(payload)) {
		t.Errorf("Size: got %d, want %d", size, len(payload))
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Payload: got %q, want %q", got, payload)
	}
}

func TestStoreContentAddressing(t *testing.T) {
	s := tempStore(t)
	payload := []byte("same content")

	h1, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	h2, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Same content produced different hashes: %q vs %q", h1, h2)
	}
	if h1 != HashObject(KindBlob, payload) {
		t.Errorf("Stored hash differs from computed identity")
	}
}

func TestStoreIdempotentWrite(t *testing.T) {
	s := tempStore(t)
	payload := []byte("written twice")

	h, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	first, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := s.Write(KindBlob, payload); err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	second, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Second write changed the stored bytes")
	}
}

func TestStoreFanoutLayoutAndCompression(t *testing.T) {
	s := tempStore(t)
	payload := []byte("hello world")

	h, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	objPath := filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
	f, err := os.Open(objPath)
	if err != nil {
		t.Fatalf("Expected fan-out file at %s: %v", objPath, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		t.Fatalf("stored object is not a zlib stream: %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	want := "blob 11\x00hello world"
	if string(raw) != want {
		t.Errorf("Canonical form: got %q, want %q", raw, want)
	}
}

func TestStoreHas(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(KindBlob, []byte("exists"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has returned false for existing object")
	}
	if s.Has(fakeHash) {
		t.Error("Has returned true for non-existing object")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, _, _, err := s.Read(fakeHash)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read of missing object: got %v, want ErrNotFound", err)
	}
}

func TestStoreReadNotZlib(t *testing.T) {
	s := tempStore(t)
	dir := filepath.Join(s.root, "objects", string(fakeHash[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(fakeHash[2:])), []byte("not compressed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := s.Read(fakeHash)
	if !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Read of garbage object: got %v, want ErrCorruptObject", err)
	}
}

func TestStoreReadMalformedHeader(t *testing.T) {
	s := tempStore(t)
	// Valid zlib stream whose content has no NUL byte: must surface as a
	// header error, not a decompression error.
	plantObject(t, s, fakeHash, []byte("no null byte here"))
	_, _, _, err := s.Read(fakeHash)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("got %v, want ErrMalformedHeader", err)
	}
}

func TestStoreReadHeaderWithoutSpace(t *testing.T) {
	s := tempStore(t)
	plantObject(t, s, fakeHash, []byte("blob5\x00abc"))
	_, _, _, err := s.Read(fakeHash)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("got %v, want ErrMalformedHeader", err)
	}
}

func TestStoreReadUnknownKind(t *testing.T) {
	s := tempStore(t)
	plantObject(t, s, fakeHash, []byte("tag 3\x00abc"))
	_, _, _, err := s.Read(fakeHash)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v, want ErrUnknownKind", err)
	}
}

func TestStoreReadInvalidSize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "non-numeric", raw: "blob abc\x00xyz"},
		{name: "negative", raw: "blob -5\x00xyz"},
		{name: "trailing token", raw: "blob 3 extra\x00xyz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := tempStore(t)
			plantObject(t, s, fakeHash, []byte(tc.raw))
			_, _, _, err := s.Read(fakeHash)
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("got %v, want ErrInvalidSize", err)
			}
		})
	}
}

func TestStoreReadBoundedToDeclaredSize(t *testing.T) {
	s := tempStore(t)
	// Header declares 3 bytes but the stream carries 6: the reader must
	// stop at the declared size.
	plantObject(t, s, fakeHash, []byte("blob 3\x00abcdef"))

	kind, size, rc, err := s.Read(fakeHash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rc.Close()
	if kind != KindBlob || size != 3 {
		t.Fatalf("header: got (%q, %d), want (blob, 3)", kind, size)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Bounded read: got %q, want %q", got, "abc")
	}
}

func TestStoreReadBytesShortPayload(t *testing.T) {
	s := tempStore(t)
	// Header declares 10 bytes but only 3 are present. The streaming read
	// path permits stopping early; full materialization treats the
	// mismatch as corruption.
	plantObject(t, s, fakeHash, []byte("blob 10\x00abc"))

	_, _, rc, err := s.Read(fakeHash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	partial := make([]byte, 2)
	if _, err := io.ReadFull(rc, partial); err != nil {
		t.Fatalf("partial read: %v", err)
	}
	rc.Close()

	_, _, err = s.ReadBytes(fakeHash)
	if !errors.Is(err, ErrCorruptObject) {
		t.Errorf("ReadBytes of short payload: got %v, want ErrCorruptObject", err)
	}
}

func TestStoreReadBytesRoundTrip(t *testing.T) {
	s := tempStore(t)
	payload := []byte("blob content\nwith newlines")

	h, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	kind, got, err := s.ReadBytes(h)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if kind != KindBlob {
		t.Errorf("Kind: got %q, want %q", kind, KindBlob)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Payload: got %q, want %q", got, payload)
	}
}

func TestStoreReadBytesCaching(t *testing.T) {
	s := tempStore(t)
	payload := []byte("cached content")

	h, err := s.Write(KindBlob, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, _, err := s.ReadBytes(h); err != nil {
		t.Fatalf("ReadBytes warmup: %v", err)
	}
	kind, data, err := s.ReadBytes(h)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if kind != KindBlob {
		t.Fatalf("Kind: got %q", kind)
	}

	// Mutating the returned slice must not poison later reads.
	data[0] = 'X'

	// Remove the backing file; the cached copy must still serve reads.
	if err := os.Remove(s.objectPath(h)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, again, err := s.ReadBytes(h)
	if err != nil {
		t.Fatalf("ReadBytes after remove: %v", err)
	}
	if !bytes.Equal(again, payload) {
		t.Errorf("Cached payload: got %q, want %q", again, payload)
	}
}

func TestStoreErrorsCarryHashContext(t *testing.T) {
	s := tempStore(t)
	_, _, _, err := s.Read(fakeHash)
	if err == nil || !strings.Contains(err.Error(), string(fakeHash)) {
		t.Errorf("error should name the hash: %v", err)
	}
}
