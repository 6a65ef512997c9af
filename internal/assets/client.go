package assets

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/khaledmahi/linkup/pkg/logger"
)

// Client talks to a Cloudinary-compatible image hosting API.
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates an asset store client for the given API endpoint.
func NewClient(baseURL, key, secret string, baseLog *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     baseLog.With("client", "AssetStore"),
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Upload sends one image, optionally requesting a fixed crop size, and
// returns the stored asset.
func (c *Client) Upload(ctx context.Context, file File, width, height int) (*Asset, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}
	if width > 0 && height > 0 {
		params["transformation"] = fmt.Sprintf("c_fill,w_%d,h_%d", width, height)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err := c.writeSignedFields(mw, params); err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &Asset{URL: ur.SecureURL, PublicID: ur.PublicID}, nil
}

// UploadBatch uploads each file in turn and reports a per-item status. A
// failed item does not abort the rest of the batch.
func (c *Client) UploadBatch(ctx context.Context, files []File) ([]UploadResult, error) {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		asset, err := c.Upload(ctx, f, 0, 0)
		if err != nil {
			c.log.Warn("image upload failed", "file", f.Name, "error", err)
			results = append(results, UploadResult{Status: StatusFailed})
			continue
		}
		results = append(results, UploadResult{Asset: *asset, Status: StatusOK})
	}
	return results, nil
}

// Destroy asks the hosting service to delete the given public IDs and splits
// the outcome into confirmed and unconfirmed deletions.
func (c *Client) Destroy(ctx context.Context, publicIDs []string) (deleted, notDeleted []string, err error) {
	for _, id := range publicIDs {
		ok, err := c.destroyOne(ctx, id)
		if err != nil {
			c.log.Warn("image destroy failed", "public_id", id, "error", err)
			notDeleted = append(notDeleted, id)
			continue
		}
		if ok {
			deleted = append(deleted, id)
		} else {
			notDeleted = append(notDeleted, id)
		}
	}
	return deleted, notDeleted, nil
}

func (c *Client) destroyOne(ctx context.Context, publicID string) (bool, error) {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := c.writeSignedFields(mw, params); err != nil {
		return false, err
	}
	if err := mw.Close(); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image/destroy", &body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("destroy rejected with status %d", resp.StatusCode)
	}

	var dr destroyResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return false, err
	}
	return dr.Result == "ok", nil
}

// writeSignedFields writes the request parameters plus the API key and the
// signature covering them.
func (c *Client) writeSignedFields(mw *multipart.Writer, params map[string]string) error {
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.WriteField("api_key", c.key); err != nil {
		return err
	}
	return mw.WriteField("signature", c.sign(params))
}

// sign produces the request signature: the sorted query-string form of the
// parameters concatenated with the API secret, SHA-1 hashed.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(params[k])
	}
	buf.WriteString(c.secret)

	sum := sha1.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
