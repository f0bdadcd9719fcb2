package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/halvard/dagaz/internal/apperr"
	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/document"
)

var (
	mimeToExt = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type uploadResult struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	MarkdownImage string `json:"markdownImage"`
}

func (s *Server) uploadImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dataURI, err := req.RequireString("data_uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename := ""
	if v, fErr := req.RequireString("filename"); fErr == nil {
		filename = v
	}

	data, mimeType, err := decodeDataURI(dataURI)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validateMagicBytes(data, mimeType); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if filename == "" {
		filename = uuid.New().String() + mimeToExt[mimeType]
	}
	filename = sanitizeFilename(filename)

	rec, err := s.attachments.Create(ctx, s.owner, entryID, attachment.Upload{
		OriginalName: filename,
		MimeType:     mimeType,
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("entry not found: %s", entryID)), nil
		case errors.Is(err, apperr.ErrPayloadTooLarge):
			return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), s.attachments.MaxBytes())), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	url := attachment.Locator(entryID, rec.ID)
	out, _ := json.Marshal(uploadResult{
		ID:            rec.ID,
		URL:           url,
		MarkdownImage: document.ImageMarkdown(rec.OriginalName, url),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI and returns
// the payload with its declared MIME type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mimeToExt[mime] == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s (allowed: jpeg, png, gif, webp)", mime)
	}
	return data, mime, nil
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = uuid.New().String()
	}
	return name
}

// validateMagicBytes verifies file content matches the declared MIME type.
func validateMagicBytes(data []byte, mimeType string) error {
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if detected != mimeType {
		return fmt.Errorf("content does not match declared type %s (detected: %s)", mimeType, detected)
	}
	return nil
}
