// Package imagehost wraps the Cloudinary unsigned-upload endpoint. Upload is
// the only capability used; there is no delete or list path.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// MaxUploadBytes caps accepted image files at 5 MB.
const MaxUploadBytes = 5 << 20

// UploadResult is the subset of the Cloudinary response the app consumes.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

// ImageURL returns the canonical URL for the uploaded image. Some presets
// only fill one of the two URL fields.
func (r *UploadResult) ImageURL() string {
	if r.SecureURL != "" {
		return r.SecureURL
	}
	return r.URL
}

// Client uploads images to a Cloudinary cloud using an unsigned preset.
type Client struct {
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
	baseURL      string
}

// NewClient constructs a Client. The zero cloud name disables uploads;
// Upload then fails with a configuration error instead of a network one.
func NewClient(cloudName, uploadPreset string) *Client {
	return &Client{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      "https://api.cloudinary.com/v1_1",
	}
}

// Upload sends one image file to the image host and returns its hosted URL
// metadata. Any non-2xx response is surfaced as an error with the response
// body for diagnosis.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	if c.cloudName == "" || c.uploadPreset == "" {
		return nil, fmt.Errorf("image host not configured: missing cloud name or upload preset")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(fw, io.LimitReader(file, MaxUploadBytes+1)); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("image host returned %d: %s", resp.StatusCode, msg)
	}

	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.ImageURL() == "" {
		return nil, fmt.Errorf("image host returned no url")
	}
	return &out, nil
}
