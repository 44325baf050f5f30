package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/pkg/id"
	"github.com/gabriel-vasile/mimetype"
)

// Kind selects the key prefix and the accepted content of an upload.
type Kind string

const (
	KindLogo     Kind = "logos"
	KindShipment Kind = "shipments"
)

// sniffLen is how much of the body is inspected to detect the content type.
const sniffLen = 3072

var allowedTypes = map[Kind][]string{
	KindLogo:     {"image/png", "image/jpeg", "image/webp", "image/svg+xml"},
	KindShipment: {"image/png", "image/jpeg", "image/webp", "image/heic", "application/pdf"},
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindLogo, KindShipment:
		return k, nil
	default:
		return "", fmt.Errorf("unknown upload kind %q: %w", s, domain.ErrBadRequest)
	}
}

type Input struct {
	Kind     Kind
	OwnerID  string // user id for logos, purchase id for shipment photos
	Filename string
	Reader   io.Reader
}

type Result struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SHA256      string `json:"sha256"`
}

// ObjectStore persists blobs and returns their permanent URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type Service interface {
	Upload(ctx context.Context, in Input) (*Result, error)
}

type service struct {
	store ObjectStore
}

func NewService(store ObjectStore) Service {
	return &service{store: store}
}

func (s *service) Upload(ctx context.Context, in Input) (*Result, error) {
	if in.OwnerID == "" {
		return nil, fmt.Errorf("owner id required: %w", domain.ErrBadRequest)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("empty upload: %w", domain.ErrBadRequest)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !mimetype.EqualsAny(mt.String(), allowedTypes[in.Kind]...) {
		return nil, fmt.Errorf("content type %s not accepted for %s: %w", mt.String(), in.Kind, domain.ErrBadRequest)
	}

	key := fmt.Sprintf("%s/%s/%s-%s", in.Kind, sanitizeSegment(in.OwnerID), id.New(), sanitizeFilename(in.Filename))
	hasher := sha256.New()
	body := io.TeeReader(io.MultiReader(bytes.NewReader(head), in.Reader), hasher)
	url, err := s.store.Upload(ctx, key, body, mt.String())
	if err != nil {
		return nil, err
	}
	res := &Result{Key: key, URL: url, ContentType: mt.String(), SHA256: hex.EncodeToString(hasher.Sum(nil))}
	slog.Info("file uploaded", "kind", in.Kind, "owner_id", in.OwnerID, "key", key)
	return res, nil
}

// sanitizeFilename strips any directory part and replaces everything outside
// [A-Za-z0-9._-] so the name is safe as the last key segment.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}

func sanitizeSegment(s string) string {
	return strings.Trim(sanitizeFilename(s), ".")
}
