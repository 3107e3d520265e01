// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/skiff-chat/skiff/lib/ref"
)

// UploadFile streams a file into a room as a multipart upload. The
// returned message carries the attachment the server created. source
// is read to completion; req.Progress, when set, observes cumulative
// bytes read.
//
// The body is streamed through an io.Pipe so the full file never sits
// in memory.
func (s *DirectSession) UploadFile(ctx context.Context, roomID ref.RoomID, req UploadRequest, source io.Reader) (*Message, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("chat: upload filename is required")
	}
	creds, err := s.credentials()
	if err != nil {
		return nil, err
	}

	uploadID := uuid.NewString()
	logger := s.client.logger.With(
		"upload_id", uploadID,
		"room_id", roomID,
		"filename", req.Filename,
		"size", req.Size,
	)
	logger.Info("starting upload")

	counted := &countingReader{r: source, progress: req.Progress}

	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)
	go func() {
		pipeWriter.CloseWithError(writeUploadForm(writer, req, counted))
	}()

	body, err := s.client.doRequestRaw(ctx, http.MethodPost,
		apiPrefix+"/rooms.upload/"+roomID.String(), creds, writer.FormDataContentType(), pipeReader)
	// Unblock the writing goroutine if the request failed mid-stream.
	pipeReader.CloseWithError(err)
	if err != nil {
		logger.Warn("upload failed", "error", err, "bytes_sent", counted.count())
		return nil, fmt.Errorf("uploading %s to %s: %w", req.Filename, roomID, err)
	}
	logger.Info("upload complete", "bytes_sent", counted.count())

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return &resp.Message, nil
}

func writeUploadForm(writer *multipart.Writer, req UploadRequest, file io.Reader) error {
	if req.Message != "" {
		if err := writer.WriteField("msg", req.Message); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Filename))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("streaming %s: %w", req.Filename, err)
	}
	return writer.Close()
}

// countingReader counts bytes read and reports progress. The count is
// atomic because the reading goroutine and the caller's error path
// both look at it.
type countingReader struct {
	r        io.Reader
	n        atomic.Int64
	progress func(sent int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		total := c.n.Add(int64(n))
		if c.progress != nil {
			c.progress(total)
		}
	}
	return n, err
}

func (c *countingReader) count() int64 { return c.n.Load() }

// DetectContentType guesses a MIME type from a filename extension,
// falling back to application/octet-stream. Used by callers that do
// not know the type up front.
func DetectContentType(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}
