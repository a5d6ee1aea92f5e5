package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docvault/internal/client/models"
	"github.com/google/uuid"
)

// otpVerifiedMsg is the exact acknowledgment the backend sends for a
// correct OTP. Anything else on a 2xx means the code was rejected.
// The deployed backend offers no structured success flag, so this string
// is part of the wire contract; keep it in sync with the server.
const otpVerifiedMsg = "OTP verified"

// RESTClient implements Client over the backend's JSON/multipart HTTP API.
type RESTClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewRESTClient constructs a client for the API rooted at baseURL,
// e.g. "http://127.0.0.1:8080/api". Timeout bounds every request.
func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// newRequest builds a request with auth and correlation headers attached.
func (c *RESTClient) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and returns the response body for 2xx statuses.
// Non-2xx responses are mapped to *Error with the server's msg field when
// the body carries one; transport failures are wrapped in ErrUnavailable.
func (c *RESTClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Msg string `json:"msg"`
		}
		_ = json.Unmarshal(data, &body)
		return 0, nil, &Error{Status: resp.StatusCode, Msg: body.Msg}
	}
	return resp.StatusCode, data, nil
}

func (c *RESTClient) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	_, data, err := c.do(req)
	return data, err
}

func (c *RESTClient) Register(ctx context.Context, r RegisterRequest) (*AuthResult, error) {
	data, err := c.postJSON(ctx, "/register", r)
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding register response: %w", err)
	}
	return &res, nil
}

func (c *RESTClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	data, err := c.postJSON(ctx, "/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	return &res, nil
}

func (c *RESTClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	data, err := c.postJSON(ctx, "/forgot-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return decodeMsg(data), nil
}

func (c *RESTClient) VerifyOTP(ctx context.Context, email, otp string) error {
	data, err := c.postJSON(ctx, "/verify-otp", map[string]string{"email": email, "otp": otp})
	if err != nil {
		return err
	}
	if decodeMsg(data) != otpVerifiedMsg {
		return ErrOTPRejected
	}
	return nil
}

func (c *RESTClient) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	data, err := c.postJSON(ctx, "/reset-password", map[string]string{"email": email, "newPassword": newPassword})
	if err != nil {
		return "", err
	}
	return decodeMsg(data), nil
}

// wireDocument is a document record as the backend serializes it. The
// store keys records by _id; some responses use a bare id instead.
type wireDocument struct {
	MongoId     string      `json:"_id"`
	Id          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	ExpiryDate  models.Date `json:"expiryDate"`
	FileUrl     string      `json:"fileUrl"`
}

func (w wireDocument) toModel() models.Document {
	id := w.MongoId
	if id == "" {
		id = w.Id
	}
	return models.Document{
		Id:          id,
		Name:        w.Name,
		Type:        w.Type,
		Description: w.Description,
		ExpiryDate:  w.ExpiryDate,
		FileUrl:     w.FileUrl,
	}
}

// ListDocuments fetches the full collection. The backend answers either
// with a bare array or with {"documents": [...]} depending on the route
// version; both are normalized here so callers see one shape.
func (c *RESTClient) ListDocuments(ctx context.Context) ([]models.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents", nil, "")
	if err != nil {
		return nil, err
	}
	_, data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var wire []wireDocument
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("decoding document list: %w", err)
		}
	} else {
		var envelope struct {
			Documents []wireDocument `json:"documents"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decoding document list: %w", err)
		}
		wire = envelope.Documents
	}

	docs := make([]models.Document, 0, len(wire))
	for _, w := range wire {
		docs = append(docs, w.toModel())
	}
	return docs, nil
}

func (c *RESTClient) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents/"+id, nil, "")
	if err != nil {
		return nil, err
	}
	_, data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	doc := w.toModel()
	return &doc, nil
}

func (c *RESTClient) UploadDocument(ctx context.Context, up Upload) (*models.Document, error) {
	body, contentType, err := encodeMultipart(up)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/upload-document", body, contentType)
	if err != nil {
		return nil, err
	}
	_, data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// The contract only promises a 201. Newer backends echo the created
	// record; pick it up when present so the store can reconcile locally.
	var envelope struct {
		Document *wireDocument `json:"document"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Document != nil {
		doc := envelope.Document.toModel()
		return &doc, nil
	}
	var w wireDocument
	if err := json.Unmarshal(data, &w); err == nil && (w.MongoId != "" || w.Id != "") {
		doc := w.toModel()
		return &doc, nil
	}
	return nil, nil
}

func (c *RESTClient) UpdateDocument(ctx context.Context, id string, up Upload) error {
	body, contentType, err := encodeMultipart(up)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/documents/"+id, body, contentType)
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}

func (c *RESTClient) DeleteDocument(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/documents/"+id, nil, "")
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}

// encodeMultipart renders the upload form. The file part is omitted
// entirely when up.File is nil; the server distinguishes "no file field"
// (keep existing) from an empty one.
func encodeMultipart(up Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":        up.Name,
		"type":        up.Type,
		"description": up.Description,
		"expiryDate":  up.ExpiryDate.String(),
	}
	for _, name := range []string{"name", "type", "description", "expiryDate"} {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}

	if up.File != nil {
		part, err := w.CreateFormFile("file", up.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, up.File.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeMsg(data []byte) string {
	var body struct {
		Msg string `json:"msg"`
	}
	_ = json.Unmarshal(data, &body)
	return body.Msg
}
