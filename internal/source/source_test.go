package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type memStore map[string][]byte

func (m memStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return data, nil
}

type memObjects map[string][]byte

func (m memObjects) ReadObject(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := m[bucket+"/"+key]
	if !ok {
		return nil, errors.New("missing")
	}
	return data, nil
}

func TestHTTPLoaderAllowlist(t *testing.T) {
	body := pngBytes(t, 4, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	allowed := NewHTTPLoader(HTTPOptions{AllowedHosts: []string{u.Hostname()}, Logger: zerolog.Nop()})
	mux := &Mux{HTTP: allowed}
	img, err := mux.Load(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", img.Bounds())
	}

	denied := NewHTTPLoader(HTTPOptions{AllowedHosts: []string{"cdn.example.com"}})
	if _, err := denied.Fetch(context.Background(), srv.URL+"/a.png"); !errors.Is(err, ErrHostNotAllowed) {
		t.Fatalf("error = %v, want ErrHostNotAllowed", err)
	}
}

func TestHTTPLoaderLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte{0xff}, 2048))
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	loader := NewHTTPLoader(HTTPOptions{AllowedHosts: []string{u.Hostname()}, MaxBytes: 1024})
	if _, err := loader.Fetch(context.Background(), srv.URL+"/big"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}
	if _, err := loader.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestDataURI(t *testing.T) {
	raw := pngBytes(t, 2, 2)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	img, err := (&Mux{}).Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Fatalf("width = %d, want 2", img.Bounds().Dx())
	}

	tests := []struct {
		name string
		ref  string
		want error
	}{
		{name: "no comma", ref: "data:image/png;base64", want: ErrInvalidDataURI},
		{name: "bad base64", ref: "data:image/png;base64,@@@", want: ErrInvalidDataURI},
		{name: "too large", ref: "data:text/plain,hello", want: ErrTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DataURI{MaxBytes: 3}.Fetch(context.Background(), tc.ref)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := (&Mux{}).Load(context.Background(), "data:text/plain,hello"); !errors.Is(err, ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}
}

func TestMuxDispatch(t *testing.T) {
	raw := pngBytes(t, 5, 5)
	mux := &Mux{
		Store:   memStore{"users/u1/a.png": raw},
		Objects: memObjects{"exports/in/b.png": raw},
	}

	for _, ref := range []string{"users/u1/a.png", "s3://exports/in/b.png"} {
		if _, err := mux.Load(context.Background(), ref); err != nil {
			t.Fatalf("Load(%q) error = %v", ref, err)
		}
	}
	if _, err := mux.Load(context.Background(), "https://example.com/x.png"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
	if _, err := mux.Load(context.Background(), "  "); !errors.Is(err, ErrEmptyReference) {
		t.Fatalf("error = %v, want ErrEmptyReference", err)
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		ok          bool
	}{
		{in: "s3://bucket/a/b.png", bucket: "bucket", key: "a/b.png", ok: true},
		{in: "s3://bucket//b.png", bucket: "bucket", key: "b.png", ok: true},
		{in: "s3://bucket", ok: false},
		{in: "s3:///key", ok: false},
		{in: "gs://bucket/key", ok: false},
	}
	for _, tc := range tests {
		bucket, key, err := ParseS3URL(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseS3URL(%q) error = %v", tc.in, err)
		}
		if tc.ok && (bucket != tc.bucket || key != tc.key) {
			t.Fatalf("ParseS3URL(%q) = %q, %q", tc.in, bucket, key)
		}
	}
}

// withDimensions rewrites the IHDR chunk of a PNG to declare w x h while the
// pixel data stays tiny.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	if len(data) < 33 || string(data[12:16]) != "IHDR" {
		t.Fatalf("unexpected png header")
	}
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	huge := withDimensions(t, pngBytes(t, 1, 1), 12000, 12000)
	if len(huge) > 1024 {
		t.Fatalf("len(huge) = %d, want a tiny input", len(huge))
	}

	img, err := Decode(huge)
	if !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Decode() = %v, %v; want ErrTooManyPixels", img, err)
	}

	mux := &Mux{Data: DataURI{}, MaxPixels: 10 * 10}
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 11, 10))
	if _, err := mux.Load(context.Background(), ref); !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Load() over MaxPixels error = %v, want ErrTooManyPixels", err)
	}
}

func TestDecodeLimit(t *testing.T) {
	data := pngBytes(t, 10, 10)
	tests := []struct {
		name      string
		maxPixels int64
		wantErr   error
	}{
		{name: "at limit", maxPixels: 100},
		{name: "default", maxPixels: 0},
		{name: "over limit", maxPixels: 99, wantErr: ErrTooManyPixels},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := DecodeLimit(data, tc.maxPixels)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("DecodeLimit() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeLimit() error = %v", err)
			}
			if got := img.Bounds().Dx() * img.Bounds().Dy(); got != 100 {
				t.Fatalf("pixels = %d, want 100", got)
			}
		})
	}

	if _, err := DecodeLimit([]byte("not an image"), 0); !errors.Is(err, ErrDecode) {
		t.Fatalf("DecodeLimit(garbage) error = %v, want ErrDecode", err)
	}
}
