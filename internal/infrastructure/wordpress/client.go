package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// Client publishes to WordPress-compatible REST endpoints. Account
// credentials travel as HTTP Basic auth on every request.
type Client struct {
	httpClient *http.Client
}

var _ ports.Publisher = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 30s timeout default.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: client}
}

// UploadMedia downloads the image and re-uploads it to the account's
// media endpoint, returning the platform media id.
func (c *Client) UploadMedia(ctx context.Context, account domain.ExternalAccount, imageURL, title string) (int64, error) {
	imageReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build image request: %w", err)
	}

	imageResp, err := c.httpClient.Do(imageReq)
	if err != nil {
		return 0, fmt.Errorf("download image: %w", err)
	}
	defer imageResp.Body.Close()

	if imageResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download image: unexpected status %s", imageResp.Status)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return 0, fmt.Errorf("build form file: %w", err)
	}
	if _, err := io.Copy(part, imageResp.Body); err != nil {
		return 0, fmt.Errorf("copy image: %w", err)
	}
	if err := writer.WriteField("title", title); err != nil {
		return 0, fmt.Errorf("write title field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(account.APIURL, "media"), &form)
	if err != nil {
		return 0, fmt.Errorf("build upload request: %w", err)
	}
	req.SetBasicAuth(account.Username, account.Password)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("media upload failed %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}

	return media.ID, nil
}

// CreatePost submits the post. A non-success status comes back as an
// error carrying the status and response body; callers treat it as a
// hard failure for the candidate.
func (c *Client) CreatePost(ctx context.Context, account domain.ExternalAccount, post domain.PostRequest) (*domain.PostResult, error) {
	payload := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"status":  post.Status,
	}
	if post.FeaturedMedia > 0 {
		payload["featured_media"] = post.FeaturedMedia
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(account.APIURL, "posts"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build post request: %w", err)
	}
	req.SetBasicAuth(account.Username, account.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("post creation failed %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result struct {
		ID   int64  `json:"id"`
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode post response: %w", err)
	}

	return &domain.PostResult{ID: result.ID, Link: result.Link}, nil
}

func endpoint(apiURL, path string) string {
	return strings.TrimSuffix(apiURL, "/") + "/" + path
}
