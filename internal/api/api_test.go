package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/journal"
	"github.com/halvard/dagaz/internal/storage"
	"github.com/halvard/dagaz/internal/testutil"
)

// testEnv sets up a temp uploads dir, SQLite DB, services, and router.
// authToken == "" means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, storage.Provider) {
	t.Helper()

	database := testutil.TestDB(t)
	_, store := testutil.TestUploads(t)

	attachments := attachment.NewService(database, store, 1<<20, nil)
	svc := journal.NewService(database, attachments, nil, nil)

	enabled := authToken != ""
	router := NewRouter(svc, attachments, enabled, authToken, "local", nil)
	return router, store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createEntry(t *testing.T, router http.Handler, title, content string) EntryDetail {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/entries",
		map[string]string{"title": title, "content": content}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create entry = %d, body = %s", w.Code, w.Body.String())
	}
	var detail EntryDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	return detail
}

func TestCreateAndGetEntry(t *testing.T) {
	router, _ := testEnv(t, "")

	created := createEntry(t, router, "First", "Hello **world**.")
	if created.Checksum == "" {
		t.Error("response should carry a checksum")
	}

	w := doJSON(t, router, http.MethodGet, "/entries/"+created.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var got EntryDetail
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "First" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Content != "Hello **world**." {
		t.Errorf("content = %q", got.Content)
	}
}

func TestCreateEntry_TitleRequired(t *testing.T) {
	router, _ := testEnv(t, "")
	w := doJSON(t, router, http.MethodPost, "/entries", map[string]string{"content": "x"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "Lock", "v1")

	upd := map[string]string{"title": "Lock", "content": "v2"}
	w := doJSON(t, router, http.MethodPut, "/entries/"+created.ID, upd,
		map[string]string{"If-Match": created.Checksum})
	if w.Code != http.StatusOK {
		t.Fatalf("update with fresh checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Same checksum is now stale.
	w = doJSON(t, router, http.MethodPut, "/entries/"+created.ID, upd,
		map[string]string{"If-Match": created.Checksum})
	if w.Code != http.StatusConflict {
		t.Errorf("stale checksum = %d, want 409", w.Code)
	}

	// Quoted ETag form is accepted.
	var fresh EntryDetail
	g := doJSON(t, router, http.MethodGet, "/entries/"+created.ID, nil, nil)
	_ = json.Unmarshal(g.Body.Bytes(), &fresh)
	w = doJSON(t, router, http.MethodPut, "/entries/"+created.ID, upd,
		map[string]string{"If-Match": `"` + fresh.Checksum + `"`})
	if w.Code != http.StatusOK {
		t.Errorf("quoted checksum = %d, want 200", w.Code)
	}
}

func TestDeleteEntry_SoftThenGone(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "Bye", "gone")

	w := doJSON(t, router, http.MethodDelete, "/entries/"+created.ID, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/entries/"+created.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestDeleteEntry_Hard(t *testing.T) {
	router, store := testEnv(t, "")
	created := createEntry(t, router, "Bye", "")
	uploadImage(t, router, created.ID, "image/jpeg", []byte("img"))

	w := doJSON(t, router, http.MethodDelete, "/entries/"+created.ID+"?hard=true", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("hard delete = %d", w.Code)
	}
	names, _ := store.List()
	if len(names) != 0 {
		t.Errorf("binaries remain after hard delete: %v", names)
	}
}

func TestListEntries(t *testing.T) {
	router, _ := testEnv(t, "")
	createEntry(t, router, "a", "")
	createEntry(t, router, "b", "")

	w := doJSON(t, router, http.MethodGet, "/entries?limit=10", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp EntryListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(resp.Entries))
	}
	if resp.Total != 2 {
		t.Errorf("total = %d", resp.Total)
	}
	for _, e := range resp.Entries {
		if e.Checksum == "" {
			t.Errorf("entry %s listed without checksum", e.ID)
		}
	}
}

func TestPreviewEntryHTML(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "Preview", "# Hi\n\nSome **bold** text.")

	w := doJSON(t, router, http.MethodGet, "/entries/"+created.ID+"/html", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview = %d", w.Code)
	}
	var resp HTMLResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.HTML, "<strong>bold</strong>") {
		t.Errorf("html = %q", resp.HTML)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	// Missing token.
	w := doJSON(t, router, http.MethodGet, "/entries", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	// Wrong token.
	w = doJSON(t, router, http.MethodGet, "/entries", nil,
		map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	// Valid token.
	w = doJSON(t, router, http.MethodGet, "/entries", nil,
		map[string]string{"Authorization": "Bearer secret123"})
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	router, _ := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/entries/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing entry = %d, want 404", w.Code)
	}
}

// Attachment tests.

func multipartImage(t *testing.T, mimeType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="photo.jpg"`)
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func uploadImage(t *testing.T, router http.Handler, entryID, mimeType string, data []byte) AttachmentUploadResponse {
	t.Helper()
	buf, contentType := multipartImage(t, mimeType, data)
	req := httptest.NewRequest(http.MethodPost, "/entries/"+entryID+"/attachments", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestUploadAndFetchAttachment(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "Photos", "")

	resp := uploadImage(t, router, created.ID, "image/jpeg", []byte("jpeg-bytes"))
	wantURL := fmt.Sprintf("/api/entries/%s/attachments/%s", created.ID, resp.ID)
	if resp.URL != wantURL {
		t.Errorf("url = %q, want %q", resp.URL, wantURL)
	}
	if resp.Markdown != "![photo.jpg]("+wantURL+")" {
		t.Errorf("markdown = %q", resp.Markdown)
	}
	// The stored filename is server-assigned, never the client's name.
	if resp.Filename == "" || !strings.HasSuffix(resp.Filename, ".jpg") {
		t.Errorf("filename = %q, want generated name with .jpg extension", resp.Filename)
	}
	if resp.Filename == resp.OriginalName {
		t.Errorf("filename %q must not echo the original name", resp.Filename)
	}

	// Fetch. Router mounts without the /api prefix in tests.
	fetchPath := "/entries/" + created.ID + "/attachments/" + resp.ID
	req := httptest.NewRequest(http.MethodGet, fetchPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch = %d", w.Code)
	}
	if w.Body.String() != "jpeg-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "private, max-age=31536000, immutable" {
		t.Errorf("cache control = %q", cc)
	}
}

func TestUploadAttachment_UnsupportedType(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "Docs", "")

	buf, contentType := multipartImage(t, "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/entries/"+created.ID+"/attachments", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("pdf upload = %d, want 415", w.Code)
	}
}

func TestUploadAttachment_EntryNotFound(t *testing.T) {
	router, _ := testEnv(t, "")

	buf, contentType := multipartImage(t, "image/jpeg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/entries/ghost/attachments", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("upload to missing entry = %d, want 404", w.Code)
	}
}

func TestUploadAttachment_MissingField(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "x", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/entries/"+created.ID+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestFetchAttachment_FileMissingCode(t *testing.T) {
	router, store := testEnv(t, "")
	created := createEntry(t, router, "x", "")
	resp := uploadImage(t, router, created.ID, "image/png", []byte("png"))

	// Remove the binary behind the record's back.
	names, _ := store.List()
	for _, n := range names {
		_ = store.Delete(n)
	}

	req := httptest.NewRequest(http.MethodGet, "/entries/"+created.ID+"/attachments/"+resp.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("fetch = %d, want 404", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Code != "file_missing" {
		t.Errorf("code = %q, want file_missing", body.Code)
	}
}

func TestDeleteAttachment(t *testing.T) {
	router, _ := testEnv(t, "")
	created := createEntry(t, router, "x", "")
	resp := uploadImage(t, router, created.ID, "image/gif", []byte("gif"))

	path := "/entries/" + created.ID + "/attachments/" + resp.ID
	w := doJSON(t, router, http.MethodDelete, path, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, path, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("fetch after delete = %d, want 404", w.Code)
	}
}

func TestSaveDroppingEmbedReconcilesAttachment(t *testing.T) {
	router, store := testEnv(t, "")
	created := createEntry(t, router, "x", "")
	resp := uploadImage(t, router, created.ID, "image/webp", []byte("webp"))

	// Save with the embed: attachment survives.
	w := doJSON(t, router, http.MethodPut, "/entries/"+created.ID,
		map[string]string{"title": "x", "content": resp.Markdown}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}
	g := doJSON(t, router, http.MethodGet, "/entries/"+created.ID+"/attachments/"+resp.ID, nil, nil)
	if g.Code != http.StatusOK {
		t.Fatalf("fetch after referenced save = %d", g.Code)
	}

	// Save without it: garbage-collected.
	w = doJSON(t, router, http.MethodPut, "/entries/"+created.ID,
		map[string]string{"title": "x", "content": "embed removed"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}
	g = doJSON(t, router, http.MethodGet, "/entries/"+created.ID+"/attachments/"+resp.ID, nil, nil)
	if g.Code != http.StatusNotFound {
		t.Errorf("fetch after orphaning save = %d, want 404", g.Code)
	}
	names, _ := store.List()
	if len(names) != 0 {
		t.Errorf("binaries remain: %v", names)
	}
}
