// Package editor implements the single-owner editing session: the live
// node tree, local staging of picked files, and the save-time resolution of
// ephemeral image references into durable locators.
package editor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/dagaz/internal/document"
)

// ephemeralPrefix marks session-scoped image references. They exist only
// between a Stage call and the save boundary; saved content never contains
// them.
const ephemeralPrefix = "staged:"

// IsEphemeral reports whether a locator is a session-local staging handle.
func IsEphemeral(src string) bool {
	return strings.HasPrefix(src, ephemeralPrefix)
}

// Blob is a locally picked file awaiting upload.
type Blob struct {
	Filename string
	MimeType string
	Data     []byte
}

// Uploader turns one staged blob into a durable locator. Implementations
// must be all-or-nothing per blob: on error no durable resource is assumed
// to exist.
type Uploader interface {
	Upload(ctx context.Context, ownerID, entryID string, blob Blob) (url string, err error)
}

// Session owns one document tree and its staging table. Not safe for
// concurrent use: one active editor per document.
type Session struct {
	root     *document.Node
	staged   map[string]Blob
	uploader Uploader
}

// NewSession starts editing the given canonical markdown content.
func NewSession(content string, uploader Uploader) *Session {
	return &Session{
		root:     document.Parse(content),
		staged:   make(map[string]Blob),
		uploader: uploader,
	}
}

// Root exposes the live tree for editing operations.
func (s *Session) Root() *document.Node { return s.root }

// Content serializes the current tree. Called on every change; pure.
func (s *Session) Content() string { return document.Serialize(s.root) }

// StagedCount reports how many staged blobs are pending upload.
func (s *Session) StagedCount() int { return len(s.staged) }

// Stage registers a picked file under a fresh ephemeral reference and
// appends an image node carrying it. No network call happens here; staging
// is free and may be repeated or abandoned at will.
func (s *Session) Stage(blob Blob) string {
	ref := ephemeralPrefix + uuid.New().String()
	s.staged[ref] = blob
	s.root.Children = append(s.root.Children,
		document.NewParagraph(document.NewImage(ref, blob.Filename)))
	return ref
}

// RemoveImage drops every image node carrying the given reference from the
// tree. The staged blob stays registered; Resolve discards it at save time
// when the reference no longer occurs in content.
func (s *Session) RemoveImage(ref string) {
	s.root.Walk(func(n *document.Node) {
		if !n.Kind.IsContainer() {
			return
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.Kind == document.KindImage && c.Src == ref {
				continue
			}
			kept = append(kept, c)
		}
		n.Children = kept
	})
}

// Resolve converts serialized content into its final saveable form. Staged
// references absent from the content were removed before saving: they are
// released with no upload. Every remaining reference is uploaded and all
// its occurrences rewritten to the durable locator. If any upload fails the
// whole operation fails, nothing is returned for persisting, and the
// not-yet-resolved references stay staged for retry. On success the staging
// table is cleared; resolving again is a no-op.
func (s *Session) Resolve(ctx context.Context, ownerID, entryID, content string) (string, error) {
	resolved := content
	for ref, blob := range s.staged {
		if !strings.Contains(content, ref) {
			delete(s.staged, ref)
			continue
		}
		url, err := s.uploader.Upload(ctx, ownerID, entryID, blob)
		if err != nil {
			return "", err
		}
		// A duplicated embed carries the same reference more than once;
		// every occurrence points at the one uploaded file.
		resolved = strings.ReplaceAll(resolved, ref, url)
	}
	s.staged = make(map[string]Blob)
	return resolved, nil
}

// Close tears the session down, dropping any still-staged blobs.
func (s *Session) Close() {
	s.staged = make(map[string]Blob)
	s.root = nil
}
