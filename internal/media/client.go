package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"storyline/internal/timeline"
)

// Kind names the media slot an upload belongs to.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ParseKind validates a kind received from a client.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindImage, KindVideo, KindAudio:
		return k, nil
	}
	return "", &timeline.ValidationError{Field: "kind", Message: "must be image, video or audio"}
}

// Client forwards uploads to the Media Storage Service and returns the
// opaque references it assigns.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a media storage client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// UploadResponse represents the reply of the upload endpoint.
type UploadResponse struct {
	Refs []string `json:"refs"`
}

// Upload streams one file to the storage service.
func (c *Client) Upload(ctx context.Context, kind Kind, filename string, r io.Reader) ([]string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, kind, filename, r)
		_ = pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/upload", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &timeline.NetworkError{Op: "media upload", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &timeline.NetworkError{Op: "media upload", Err: fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))}
	}

	var uploadResp UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, &timeline.MalformedResponseError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(uploadResp.Refs) == 0 {
		return nil, &timeline.MalformedResponseError{Err: fmt.Errorf("no references returned")}
	}

	return uploadResp.Refs, nil
}

func writeForm(mw *multipart.Writer, kind Kind, filename string, r io.Reader) error {
	if err := mw.WriteField("kind", string(kind)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}
