package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error = %v", err)
	}
	key, err := store.Write(context.Background(), "/users/u1/../u1/a.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if key != "users/u1/a.png" {
		t.Fatalf("key = %q, want users/u1/a.png", key)
	}
	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read error = %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("data = %q, want png", data)
	}
	if _, err := store.Read(context.Background(), "users/u1/none.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a/b.png", want: "a/b.png"},
		{in: `a\b.png`, want: "a/b.png"},
		{in: "./a.png", want: "a.png"},
		{in: "", wantErr: true},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v, want %q", tc.in, got, err, tc.want)
		}
	}
}

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	name := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[name] = data
	f.types[name] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreWriteRead(t *testing.T) {
	fake := &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
	store := &S3Store{client: fake, bucket: "exports"}

	png := []byte("\x89PNG\r\n\x1a\n0000")
	loc, err := store.Write(context.Background(), "u1/a.png", png)
	if err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if loc != "s3://exports/u1/a.png" {
		t.Fatalf("location = %q", loc)
	}
	if fake.types["exports/u1/a.png"] != "image/png" {
		t.Fatalf("content type = %q, want image/png", fake.types["exports/u1/a.png"])
	}
	data, err := store.ReadObject(context.Background(), "exports", "u1/a.png")
	if err != nil {
		t.Fatalf("ReadObject error = %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Fatalf("data mismatch")
	}
	if _, err := store.ReadObject(context.Background(), "exports", "missing"); err == nil {
		t.Fatalf("expected error for missing object")
	}

	empty := &S3Store{client: fake}
	if _, err := empty.Write(context.Background(), "a", nil); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
