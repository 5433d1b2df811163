package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vantagesec/reportkit/models"
)

// EvidenceUpload describes one attachment to upload.
type EvidenceUpload struct {
	Title       string
	Description string
	FilePath    string
}

func (c *Client) ListEvidence(ctx context.Context, findingID int64) ([]models.Evidence, error) {
	var out listEnvelope[models.Evidence]
	if err := c.do(ctx, http.MethodGet, pathf("/findings/%d/evidence", findingID), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UploadEvidence attaches a file to a finding. The file is read into memory
// so the multipart body can be rebuilt if the request is retried after a
// token refresh.
func (c *Client) UploadEvidence(ctx context.Context, findingID int64, up EvidenceUpload) (*models.Evidence, error) {
	if strings.TrimSpace(up.Title) == "" {
		return nil, fmt.Errorf("evidence title is required")
	}
	fileData, err := os.ReadFile(up.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading evidence file: %w", err)
	}
	filename := filepath.Base(up.FilePath)

	buildBody := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("title", up.Title); err != nil {
			return nil, "", err
		}
		if up.Description != "" {
			if err := mw.WriteField("description", up.Description); err != nil {
				return nil, "", err
			}
		}
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(fileData); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	var out models.Evidence
	err = c.doRaw(ctx, http.MethodPost, pathf("/findings/%d/evidence", findingID), buildBody,
		func(res *http.Response) error {
			return decodeJSONBody(res, &out)
		})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEvidence(ctx context.Context, evidenceID int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/evidence/%d", evidenceID), nil, nil)
}

// DownloadDocument renders the report server side and writes it under
// destDir, named by the server's Content-Disposition when present. Returns
// the path written.
func (c *Client) DownloadDocument(ctx context.Context, reportID int64, destDir string) (string, error) {
	var written string
	path := pathf("/reports/%d/document?download=1", reportID)
	err := c.doRaw(ctx, http.MethodGet, path, nil, func(res *http.Response) error {
		name := dispositionFilename(res.Header.Get("Content-Disposition"))
		if name == "" {
			name = fmt.Sprintf("report-%d.pdf", reportID)
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return err
		}
		dest := filepath.Join(destDir, filepath.Base(name))
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, res.Body); err != nil {
			f.Close()
			_ = os.Remove(dest)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = dest
		return nil
	})
	return written, err
}

// dispositionFilename extracts the filename from a Content-Disposition
// header, tolerating both quoted and bare forms.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Fall back to a manual scan for servers that emit unquoted names with
	// characters ParseMediaType rejects.
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(rest, `"`)
		}
	}
	return ""
}

// doRaw executes a non-JSON request with the same 401 refresh-and-retry
// behavior as do. buildBody is invoked per attempt; handle consumes the
// successful response.
func (c *Client) doRaw(ctx context.Context, method, path string,
	buildBody func() (io.Reader, string, error), handle func(*http.Response) error) error {

	attempt := func() error {
		var body io.Reader
		var contentType string
		if buildBody != nil {
			var err error
			body, contentType, err = buildBody()
			if err != nil {
				return fmt.Errorf("building request body: %w", err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if tok := c.tokens.Get().AccessToken; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}
		defer res.Body.Close()

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			data, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
			return decodeAPIError(res.StatusCode, data)
		}
		if handle != nil {
			return handle(res)
		}
		return nil
	}

	err := attempt()
	if err == nil || !statusIs(err, http.StatusUnauthorized) {
		return err
	}
	if refreshErr := c.refreshSession(ctx); refreshErr != nil {
		return err
	}
	return attempt()
}

func decodeJSONBody(res *http.Response, out any) error {
	data, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
