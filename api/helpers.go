package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
)

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any, failure string) error {
	resp, err := c.Do(ctx, Request{
		Method:         http.MethodGet,
		Path:           path,
		Query:          query,
		FailureMessage: failure,
	})
	if err != nil {
		return err
	}
	return c.decode(resp.Body, out)
}

// SendJSON sends in as a JSON body with method and decodes the response
// into out. A nil in sends no body; a nil out discards the response.
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any, failure string) error {
	req := Request{Method: method, Path: path, FailureMessage: failure}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		req.Body = bytes.NewReader(body)
		req.ContentType = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return c.decode(resp.Body, out)
}

// File is one part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Form is a multipart upload body.
type Form struct {
	Fields map[string]string
	Files  []File
}

// encode writes the form. Fields are written in key order.
func (f Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     file.Field,
			"filename": file.Name,
		}))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Upload sends form as multipart/form-data and decodes the response into out.
func (c *Client) Upload(ctx context.Context, method, path string, form Form, out any, failure string) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("api: encode upload: %w", err)
	}
	if method == "" {
		method = http.MethodPost
	}

	resp, err := c.Do(ctx, Request{
		Method:         method,
		Path:           path,
		Body:           body,
		ContentType:    contentType,
		FailureMessage: failure,
	})
	if err != nil {
		return err
	}
	return c.decode(resp.Body, out)
}

// CSVExport is a downloaded CSV document.
type CSVExport struct {
	Filename string
	Header   []string
	Rows     [][]string
}

// ExportCSV downloads path as CSV. The first record is the header.
func (c *Client) ExportCSV(ctx context.Context, path string, query url.Values, failure string) (*CSVExport, error) {
	resp, err := c.Do(ctx, Request{
		Method:         http.MethodGet,
		Path:           path,
		Query:          query,
		Accept:         "text/csv",
		FailureMessage: failure,
	})
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(resp.Body, []byte("\ufeff"))))
	r.FieldsPerRecord = -1

	export := &CSVExport{Filename: attachmentName(resp.Header)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Status: resp.Status, Message: "Unexpected response", Cause: fmt.Errorf("%w: %v", ErrDecode, err)}
		}
		if export.Header == nil {
			export.Header = rec
			continue
		}
		export.Rows = append(export.Rows, rec)
	}
	return export, nil
}

func attachmentName(h http.Header) string {
	_, params, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}

// Get fetches path and decodes the response as T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values, failure string) (T, error) {
	var out T
	err := c.GetJSON(ctx, path, query, &out, failure)
	return out, err
}

// Send sends in with method and decodes the response as T.
func Send[T any](ctx context.Context, c *Client, method, path string, in any, failure string) (T, error) {
	var out T
	err := c.SendJSON(ctx, method, path, in, &out, failure)
	return out, err
}

// Segment escapes one path segment.
func Segment(s string) string {
	return url.PathEscape(s)
}
