package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Client provides REST API access to the career-fair backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new REST API client.
// baseURL should be the base URL of the API, e.g., "http://localhost:5000/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets the session bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Chat endpoints

// Conversations returns the conversation list in server order.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var resp ConversationsResponse
	if err := c.get(ctx, "/chat/conversations", &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// Messages retrieves the message history with the given counterpart.
func (c *Client) Messages(ctx context.Context, counterpartID string) ([]Message, error) {
	var resp MessagesResponse
	if err := c.get(ctx, "/chat/messages/"+url.PathEscape(counterpartID), &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Send delivers a message over the REST path. Not required to be consistent
// with the real-time path.
func (c *Client) Send(ctx context.Context, receiverID, message string) error {
	req := SendMessageRequest{ReceiverID: receiverID, Message: message}
	return c.post(ctx, "/chat/send", req, nil)
}

// MarkRead marks a single message as read.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	return c.patch(ctx, "/chat/"+url.PathEscape(messageID)+"/read", nil, nil)
}

// Booth endpoints

// RecordBoothVisit records the authenticated student as a booth visitor.
func (c *Client) RecordBoothVisit(ctx context.Context, boothID string) error {
	return c.post(ctx, "/booths/"+url.PathEscape(boothID)+"/visitor", nil, nil)
}

// Resume endpoints

// UploadResume uploads a PDF resume as multipart form data.
func (c *Client) UploadResume(ctx context.Context, fileName string, pdf io.Reader) (*Resume, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("resume", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return nil, fmt.Errorf("copy resume body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resumes", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	var resp Resume
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StudentResume fetches the stored resume metadata for a student.
func (c *Client) StudentResume(ctx context.Context, studentID string) (*Resume, error) {
	var resp Resume
	if err := c.get(ctx, "/resumes/student/"+url.PathEscape(studentID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteResume removes a stored resume.
func (c *Client) DeleteResume(ctx context.Context, resumeID string) error {
	return c.request(ctx, http.MethodDelete, "/resumes/"+url.PathEscape(resumeID), nil, nil)
}

// Helper methods

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.request(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.request(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) patch(ctx context.Context, path string, body, dest any) error {
	return c.request(ctx, http.MethodPatch, path, body, dest)
}

func (c *Client) request(ctx context.Context, method, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.do(req, dest)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil && len(body) > 0 {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
