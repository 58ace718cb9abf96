package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// fakeAPIError satisfies smithy.APIError for isNotFound tests without
// needing a real AWS response to unmarshal.
type fakeAPIError struct{ code string }

func (e fakeAPIError) ErrorCode() string    { return e.code }
func (e fakeAPIError) ErrorMessage() string { return "fake error" }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}
func (e fakeAPIError) Error() string { return e.code + ": fake error" }

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", fakeAPIError{code: "NoSuchKey"}, true},
		{"not found", fakeAPIError{code: "NotFound"}, true},
		{"access denied", fakeAPIError{code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// newTestStore points a Store at an httptest server via a path-style
// endpoint override and static credentials, so no real AWS account or
// network access is needed.
func newTestStore(t *testing.T, handler http.HandlerFunc) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})

	return &Store{client: client, bucket: "test-bucket"}, srv
}

func TestPing_Healthy(t *testing.T) {
	store, srv := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("expected healthy ping, got %v", err)
	}
}

func TestPing_MissingBucket(t *testing.T) {
	store, srv := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestStat_NotFoundMapsToDomainError(t *testing.T) {
	store, srv := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-amz-request-id", "test-request-id")
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := store.Stat(context.Background(), "docs/missing.pdf")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected domain.ErrNotFound, got %v", err)
	}
}

func TestStat_ReturnsMetadata(t *testing.T) {
	store, srv := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1234")
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	obj, err := store.Stat(context.Background(), "docs/report.pdf")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if obj.ContentType != "application/pdf" {
		t.Errorf("expected content type application/pdf, got %q", obj.ContentType)
	}
	if obj.Size != 1234 {
		t.Errorf("expected size 1234, got %d", obj.Size)
	}
}

func TestList_ReturnsObjectsAndCursor(t *testing.T) {
	store, srv := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
	<Name>test-bucket</Name>
	<Prefix>docs/</Prefix>
	<IsTruncated>true</IsTruncated>
	<NextContinuationToken>page-2</NextContinuationToken>
	<Contents>
		<Key>docs/a.pdf</Key>
		<Size>100</Size>
		<LastModified>2026-01-01T00:00:00.000Z</LastModified>
	</Contents>
</ListBucketResult>`))
	})
	defer srv.Close()

	objects, cursor, err := store.List(context.Background(), "docs/", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 1 || objects[0].StorageKey != "docs/a.pdf" {
		t.Errorf("expected one object docs/a.pdf, got %v", objects)
	}
	if cursor != "page-2" {
		t.Errorf("expected cursor page-2, got %q", cursor)
	}
}
