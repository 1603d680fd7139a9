package files

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

// Buckets. Avatars and event images are public; receipts are gated behind
// signed URLs.
const (
	BucketAvatars  = "avatars"
	BucketReceipts = "receipts"
	BucketEvents   = "events"
)

var (
	salt    = []byte("academy.storage.files.signer")
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound       = errors.New("file not found")
	errInvalidBucket  = errors.New("unknown bucket")
	errInvalidURL     = errors.New("invalid signed URL")
	errURLExpired     = errors.New("signed URL expired")
	errEscapingBucket = errors.New("path escapes its bucket")
)

// Store keeps uploaded files on the local filesystem, one directory per
// bucket. Private buckets are only reachable through time-limited HMAC-signed
// URLs; the signature covers the path and the expiry so neither can be
// swapped.
type Store struct {
	root   string
	secret []byte
	urlTTL time.Duration
}

func NewStore(conf *core.Config) (*Store, error) {
	store := &Store{
		root:   conf.Storage.Root,
		secret: []byte(conf.SecretKey),
		urlTTL: conf.Storage.SignedURLTTL,
	}
	for _, bucket := range []string{BucketAvatars, BucketReceipts, BucketEvents} {
		if err := os.MkdirAll(filepath.Join(store.root, bucket), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating bucket directory")
		}
	}
	return store, nil
}

func isPrivate(bucket string) bool { return bucket == BucketReceipts }

func validBucket(bucket string) bool {
	switch bucket {
	case BucketAvatars, BucketReceipts, BucketEvents:
		return true
	}
	return false
}

// Save writes the upload under the bucket with a random name that keeps the
// original extension, and returns the bucket-relative path to persist.
func (st *Store) Save(bucket, origName string, r io.Reader) (string, error) {
	if !validBucket(bucket) {
		return "", errInvalidBucket
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(origName))
	relPath := path.Join(bucket, name)

	f, err := os.Create(filepath.Join(st.root, bucket, name))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing file")
	}
	return relPath, nil
}

// Open returns the stored file for a bucket-relative path.
func (st *Store) Open(relPath string) (*os.File, error) {
	full, err := st.resolve(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (st *Store) Delete(relPath string) error {
	full, err := st.resolve(relPath)
	if err != nil {
		return err
	}
	if err = os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting file")
	}
	return nil
}

func (st *Store) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + relPath)[1:] // no dot-dot escapes
	if clean != relPath {
		return "", errEscapingBucket
	}
	bucket := strings.SplitN(clean, "/", 2)[0]
	if !validBucket(bucket) {
		return "", errInvalidBucket
	}
	return filepath.Join(st.root, filepath.FromSlash(clean)), nil
}

// URL returns the serving URL for a stored path: plain for public buckets,
// signed with the configured TTL for private ones.
func (st *Store) URL(relPath string) (string, error) {
	bucket := strings.SplitN(relPath, "/", 2)[0]
	if !validBucket(bucket) {
		return "", errInvalidBucket
	}
	if !isPrivate(bucket) {
		return "/files/" + relPath, nil
	}

	expires := NowFunc().Add(st.urlTTL).Unix()
	q := make(url.Values)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", st.sign(relPath, expires))
	return fmt.Sprintf("/files/%s?%s", relPath, q.Encode()), nil
}

// VerifySignature checks a private path's signature and expiry. Expired URLs
// are denied outright; the caller re-requests a fresh one.
func (st *Store) VerifySignature(relPath, expiresStr, sig string) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return errInvalidURL
	}

	// check that the URL has not been tampered with
	want := st.sign(relPath, expires)
	if subtle.ConstantTimeCompare([]byte(want), []byte(sig)) == 0 {
		return errInvalidURL
	}

	if NowFunc().Unix() > expires {
		return errURLExpired
	}
	return nil
}

// IsPrivate reports whether a stored path requires a signed URL to serve.
func (st *Store) IsPrivate(relPath string) bool {
	return isPrivate(strings.SplitN(relPath, "/", 2)[0])
}

func (st *Store) sign(relPath string, expires int64) string {
	mac := hmac.New(sha256.New, append(salt, st.secret...))
	_, _ = fmt.Fprintf(mac, "%s:%d", relPath, expires)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
