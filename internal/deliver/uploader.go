package deliver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"crashqueue/internal/config"
	"crashqueue/internal/minidump"
)

const (
	minidumpField = "upload_file_minidump"
	eventField    = "event"

	headerAPIKey         = "Bugsnag-Api-Key"
	headerPayloadVersion = "Bugsnag-Payload-Version"
	headerSentAt         = "Bugsnag-Sent-At"
)

// Uploader delivers one crash artifact pair.
type Uploader interface {
	Upload(ctx context.Context, record minidump.Record) error
}

// PermanentError marks a failure that will not succeed on retry, such as a
// corrupt artifact or a collector rejection.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for callers that map errors to outcomes.
func (e *PermanentError) ErrorKind() string { return "rejected" }

// Permanent wraps err so IsPermanent reports true.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err should advance the queue instead of retrying.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// ErrTooLarge is wrapped in a PermanentError when a minidump exceeds the size limit.
var ErrTooLarge = errors.New("minidump exceeds size limit")

// StatusError reports a non-2xx collector response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPUploader posts minidumps as multipart forms.
type HTTPUploader struct {
	endpoint       string
	apiKey         string
	payloadVersion string
	userAgent      string
	maxBytes       int64
	client         *http.Client
	now            func() time.Time
}

// NewHTTPUploader builds an uploader from the delivery configuration.
func NewHTTPUploader(cfg *config.Config) *HTTPUploader {
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPUploader{
		endpoint:       cfg.Delivery.Endpoint,
		apiKey:         cfg.Delivery.APIKey,
		payloadVersion: cfg.Delivery.PayloadVersion,
		userAgent:      cfg.Delivery.UserAgent,
		maxBytes:       cfg.MaxMinidumpBytes(),
		client:         &http.Client{Timeout: timeout},
		now:            time.Now,
	}
}

// Upload sends the pair. Missing or oversized files and 4xx responses other
// than 408 and 429 are permanent; network errors and other statuses are not.
func (u *HTTPUploader) Upload(ctx context.Context, record minidump.Record) error {
	event, err := os.ReadFile(record.EventPath)
	if err != nil {
		return Permanent(fmt.Errorf("read event: %w", err))
	}
	dump, err := os.Open(record.MinidumpPath)
	if err != nil {
		return Permanent(fmt.Errorf("open minidump: %w", err))
	}
	defer dump.Close()

	info, err := dump.Stat()
	if err != nil {
		return Permanent(fmt.Errorf("stat minidump: %w", err))
	}
	if u.maxBytes > 0 && info.Size() > u.maxBytes {
		return Permanent(fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, info.Size(), u.maxBytes))
	}

	body, contentType := multipartBody(dump, filepath.Base(record.MinidumpPath), event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", u.userAgent)
	req.Header.Set(headerAPIKey, u.apiKey)
	req.Header.Set(headerPayloadVersion, u.payloadVersion)
	req.Header.Set(headerSentAt, u.now().UTC().Format(time.RFC3339))

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("post minidump: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	if permanentStatus(resp.StatusCode) {
		return Permanent(statusErr)
	}
	return statusErr
}

func permanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

// multipartBody streams the form through a pipe so large minidumps are never
// held in memory.
func multipartBody(dump io.Reader, filename string, event []byte) (io.Reader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			if err := writer.WriteField(eventField, string(event)); err != nil {
				return err
			}
			part, err := writer.CreateFormFile(minidumpField, filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, dump); err != nil {
				return err
			}
			return writer.Close()
		}()
		pw.CloseWithError(err)
	}()
	return pr, writer.FormDataContentType()
}
