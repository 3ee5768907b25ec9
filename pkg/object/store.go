package object

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/klauspost/compress/zlib"
)

// cacheSize bounds the decoded-object cache. Identical directory contents
// collapse to one hash, so recursive tree walks re-request the same
// objects and the cache absorbs the repeats.
const cacheSize = 1 << 10

type cachedObj struct {
	kind Kind
	data []byte
}

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Objects are persisted
// zlib-compressed in the canonical "kind len\0payload" form.
type Store struct {
	root  string
	cache *arc.ARCCache[Hash, cachedObj]
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	cache, err := arc.NewARC[Hash, cachedObj](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Store{root: root, cache: cache}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writes are
// idempotent: re-writing existing content is a no-op. New objects are
// written atomically via a temp file and rename, so a concurrent reader
// never observes a partially written object.
func (s *Store) Write(kind Kind, payload []byte) (Hash, error) {
	h := HashObject(kind, payload)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	zw := zlib.NewWriter(tmp)
	if _, err := fmt.Fprintf(zw, "%s %d\x00", kind, len(payload)); err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write header: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

// Read retrieves an object by hash. It returns the kind, the payload size
// declared by the header, and a reader bounded to exactly that many bytes:
// trailing bytes in the decompressed stream beyond the declared size are
// unreachable. Callers may read less than the declared size; Read does not
// verify that the payload is complete (ReadBytes does).
func (s *Store) Read(h Hash) (Kind, int64, io.ReadCloser, error) {
	path := s.objectPath(h)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, nil, fmt.Errorf("object %s: %w", h, ErrNotFound)
		}
		return "", 0, nil, fmt.Errorf("object read %s: %w", h, err)
	}

	zr, err := zlib.NewReader(f)
	if err != nil {
		f.Close()
		return "", 0, nil, fmt.Errorf("object %s: %w: %v", h, ErrCorruptObject, err)
	}

	br := bufio.NewReader(zr)
	kind, size, err := parseHeader(br)
	if err != nil {
		zr.Close()
		f.Close()
		return "", 0, nil, fmt.Errorf("object %s: %w", h, err)
	}

	return kind, size, &payloadReader{r: io.LimitReader(br, size), zr: zr, f: f}, nil
}

// parseHeader consumes the canonical header "kind size\0" from the
// decompressed stream.
func parseHeader(br *bufio.Reader) (Kind, int64, error) {
	header, err := br.ReadString(0)
	if err != nil {
		return "", 0, fmt.Errorf("%w: missing NUL terminator", ErrMalformedHeader)
	}
	header = header[:len(header)-1]
	if !utf8.ValidString(header) {
		return "", 0, fmt.Errorf("%w: header is not valid UTF-8", ErrMalformedHeader)
	}

	kindTok, sizeTok, ok := strings.Cut(header, " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedHeader, header)
	}
	kind, err := ParseKind(kindTok)
	if err != nil {
		return "", 0, err
	}
	size, err := strconv.ParseInt(sizeTok, 10, 64)
	if err != nil || size < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSize, sizeTok)
	}
	return kind, size, nil
}

// payloadReader bounds the decompressed stream to the declared payload
// size and closes the zlib reader and the underlying file together.
type payloadReader struct {
	r  io.Reader
	zr io.ReadCloser
	f  *os.File
}

func (pr *payloadReader) Read(p []byte) (int, error) {
	return pr.r.Read(p)
}

func (pr *payloadReader) Close() error {
	zerr := pr.zr.Close()
	ferr := pr.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// ReadBytes retrieves an object and materializes its full payload. Unlike
// Read, it verifies that the payload actually contains the number of bytes
// the header declares; an under-length payload is corruption. Decoded
// objects are kept in the ARC cache and returned as defensive copies.
func (s *Store) ReadBytes(h Hash) (Kind, []byte, error) {
	if obj, ok := s.cache.Get(h); ok {
		out := make([]byte, len(obj.data))
		copy(out, obj.data)
		return obj.kind, out, nil
	}

	kind, size, rc, err := s.Read(h)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w: %v", h, ErrCorruptObject, err)
	}
	if int64(len(data)) != size {
		return "", nil, fmt.Errorf("object %s: %w: payload is %d bytes, header declares %d",
			h, ErrCorruptObject, len(data), size)
	}

	s.cache.Add(h, cachedObj{kind: kind, data: data})

	out := make([]byte, len(data))
	copy(out, data)
	return kind, out, nil
}
