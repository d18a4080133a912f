package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/conversations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"conversations":[{"userId":"u2","userName":"Recruiter","lastMessage":"hello","timestamp":"2026-02-01T10:00:00Z"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	c.SetToken("tok")
	convs, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].CounterpartID != "u2" || convs[0].DisplayName != "Recruiter" {
		t.Fatalf("unexpected result: %+v", convs)
	}
}

func TestMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/messages/u2" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"messages":[{"senderId":"u2","message":"hello","timestamp":"2026-02-01T10:00:00Z"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	msgs, err := c.Messages(context.Background(), "u2")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderID != "u2" || msgs[0].Message != "hello" {
		t.Fatalf("unexpected result: %+v", msgs)
	}
}

func TestSendAndMarkRead(t *testing.T) {
	var sendBody string
	var readMethod, readPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/chat/send":
			b, _ := io.ReadAll(r.Body)
			sendBody = string(b)
		case strings.HasSuffix(r.URL.Path, "/read"):
			readMethod = r.Method
			readPath = r.URL.Path
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	ctx := context.Background()
	if err := c.Send(ctx, "u2", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sendBody != `{"receiverId":"u2","message":"hi"}` {
		t.Fatalf("send body = %s", sendBody)
	}
	if err := c.MarkRead(ctx, "m1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if readMethod != http.MethodPatch || readPath != "/api/chat/m1/read" {
		t.Fatalf("mark read request = %s %s", readMethod, readPath)
	}
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"conversation not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	_, err := c.Messages(context.Background(), "nobody")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "conversation not found") {
		t.Fatalf("error lost server message: %v", err)
	}
}

func TestUploadResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/resumes" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad upload", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "cv.pdf" {
			t.Errorf("filename = %s", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != "%PDF-fake" {
			t.Errorf("file body = %q", body)
		}
		io.WriteString(w, `{"id":"r1","studentId":"u1","fileName":"cv.pdf"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	res, err := c.UploadResume(context.Background(), "cv.pdf", strings.NewReader("%PDF-fake"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.ID != "r1" || res.FileName != "cv.pdf" {
		t.Fatalf("unexpected resume: %+v", res)
	}
}

func TestRecordBoothVisit(t *testing.T) {
	var path, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	if err := c.RecordBoothVisit(context.Background(), "b7"); err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if method != http.MethodPost || path != "/api/booths/b7/visitor" {
		t.Fatalf("request = %s %s", method, path)
	}
}
