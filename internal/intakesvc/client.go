// Package intakesvc submits completed drafts to the remote intake service.
package intakesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"appealdesk/api/internal/uploads"
)

const (
	submitPath  = "/api/intake/submit"
	payloadPart = "payload.json"
	filesPart   = "files"

	// DefaultTimeout bounds the whole submit round trip.
	DefaultTimeout = 120 * time.Second
)

// Receipt is the success outcome of a submission.
type Receipt struct {
	ReceiptID      string `json:"receiptId"`
	SubmittedAtISO string `json:"submittedAtIso"`
}

// Client talks to the intake service.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// Submit posts the payload and live files as a multipart request. Failures
// come back as *Error with a classification; a success status with a
// missing or malformed body is still a success, with a synthesized receipt.
func (c *Client) Submit(ctx context.Context, payload Payload, files []uploads.Live) (Receipt, error) {
	body, contentType, err := encodeMultipart(payload, files)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode submission: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, body)
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, rejection(resp)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		// The server accepted the submission; a bad success body must not
		// turn that into a failure.
		return Receipt{SubmittedAtISO: c.now().UTC().Format(time.RFC3339)}, nil
	}
	if receipt.SubmittedAtISO == "" {
		receipt.SubmittedAtISO = c.now().UTC().Format(time.RFC3339)
	}
	return receipt, nil
}

func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Kind:    KindTimeout,
			Message: "Request timed out while submitting. Please try again.",
			cause:   err,
		}
	}
	return &Error{
		Kind:    KindUnreachable,
		Message: "Unable to reach the intake service. Please try again.",
		cause:   err,
	}
}

// rejection builds a server-rejected error from a non-success response,
// preferring the structured {error:{code,message}} / {code,message} shapes
// and falling back to raw text.
func rejection(resp *http.Response) *Error {
	code, message := readErrorBody(resp)

	human := fmt.Sprintf("Submit failed (%d).", resp.StatusCode)
	if message != "" {
		human = fmt.Sprintf("Submit failed (%d). %s", resp.StatusCode, message)
	}

	return &Error{
		Kind:    KindServerRejected,
		Status:  resp.StatusCode,
		Code:    code,
		Message: human,
	}
}

func readErrorBody(resp *http.Response) (code, message string) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", ""
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var envelope struct {
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil {
			if envelope.Error != nil {
				return envelope.Error.Code, envelope.Error.Message
			}
			if envelope.Code != "" || envelope.Message != "" {
				return envelope.Code, envelope.Message
			}
		}
		// fall through to raw text
	}
	return "", strings.TrimSpace(string(raw))
}

// encodeMultipart writes one JSON part then one part per live file, skipping
// entries with no handle behind them.
func encodeMultipart(payload Payload, files []uploads.Live) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, payloadPart, payloadPart))
	header.Set("Content-Type", "application/json")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create payload part: %w", err)
	}
	if _, err := part.Write(encoded); err != nil {
		return nil, "", fmt.Errorf("write payload part: %w", err)
	}

	for _, f := range files {
		if f.Content == nil {
			continue
		}
		part, err := writer.CreateFormFile(filesPart, f.Descriptor.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", f.Descriptor.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", f.Descriptor.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
