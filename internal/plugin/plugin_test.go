package plugin_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immich-album-frame/internal/device"
	"immich-album-frame/internal/immich"
	"immich-album-frame/internal/immich/api"
	"immich-album-frame/internal/plugin"
	"immich-album-frame/internal/settings"
)

type testSecrets map[string]string

func (t testSecrets) LoadEnvKey(name string) string { return t[name] }

// testSettings is an in-memory [plugin.SettingsStore].
type testSettings struct {
	conf  settings.Settings
	saves []settings.Settings
}

func (t *testSettings) Load() (settings.Settings, error) { return t.conf, nil }

func (t *testSettings) Save(conf settings.Settings) (bool, error) {
	t.saves = append(t.saves, conf)
	changed := conf != t.conf
	t.conf = conf
	return changed, nil
}

// failingTransport fails the test if any request is attempted.
type failingTransport struct {
	t     *testing.T
	calls atomic.Int32
}

func (f *failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	f.t.Errorf("unexpected request to %s", req.URL)
	return nil, errors.New("no requests expected")
}

// newImmichServer serves a minimal immich API with a single album "Trip"
// whose assets are the given images.
func newImmichServer(t *testing.T, assets map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/albums", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"a0","albumName":"Other"},{"id":"a1","albumName":"Trip"}]`))
	})
	mux.HandleFunc("GET /api/albums/a1", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		buf.WriteString(`{"id":"a1","assets":[`)
		i := 0
		for id := range assets {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString(`{"id":"` + id + `","type":"IMAGE"}`)
			i++
		}
		buf.WriteString(`]}`)
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("GET /api/assets/{id}/original", func(w http.ResponseWriter, r *http.Request) {
		data, ok := assets[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, imaging.New(w, h, color.NRGBA{B: 200, A: 255}), nil))
	return buf.Bytes()
}

func newPlugin(secrets plugin.SecretStore, store plugin.SettingsStore, dev plugin.Device) *plugin.Plugin {
	return plugin.New(secrets, store, dev,
		plugin.WithLogger(slog.New(slog.DiscardHandler)),
		plugin.WithRand(rand.New(rand.NewPCG(1, 1))),
	)
}

func TestGenerateImage_ConfigErrors(t *testing.T) {
	full := settings.Settings{ImmichServerURL: "http://immich.invalid", AlbumName: "Trip"}
	dev := device.Config{Resolution: [2]int{800, 480}}

	tests := []struct {
		name     string
		secrets  testSecrets
		settings settings.Settings
		device   device.Config
		wantMsg  string
	}{
		{"missing api key", testSecrets{}, full, dev, "Immich API key not configured."},
		{"missing server url", testSecrets{plugin.SecretName: "secret"},
			settings.Settings{AlbumName: "Trip"}, dev, "Immich Server URL is required."},
		{"missing album name", testSecrets{plugin.SecretName: "secret"},
			settings.Settings{ImmichServerURL: "http://immich.invalid"}, dev, "Album name is required."},
		{"missing resolution", testSecrets{plugin.SecretName: "secret"}, full, device.Config{},
			"Device resolution is not configured."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &failingTransport{t: t}
			store := &testSettings{conf: tt.settings}
			p := plugin.New(tt.secrets, store, tt.device,
				plugin.WithLogger(slog.New(slog.DiscardHandler)),
				plugin.WithTransport(transport),
			)
			img, err := p.GenerateImage(context.Background())
			assert.Nil(t, img)
			var cerr *plugin.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantMsg, cerr.Error())
			assert.Zero(t, transport.calls.Load(), "no request should be made")
			assert.Empty(t, store.saves)
		})
	}
}

func TestGenerateImage(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{
		"x1": jpegBytes(t, 400, 300),
		"x2": jpegBytes(t, 300, 400),
	})
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip"}}
	p := newPlugin(testSecrets{plugin.SecretName: "secret"}, store, device.Config{Resolution: [2]int{200, 100}})

	img, err := p.GenerateImage(context.Background())
	require.NoError(t, err)
	size := img.Bounds().Size()
	assert.LessOrEqual(t, size.X, 200)
	assert.LessOrEqual(t, size.Y, 100)
	assert.Equal(t, 100, size.Y)

	require.Len(t, store.saves, 1)
	assert.Equal(t, settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip"}, store.saves[0])
}

func TestGenerateImage_VerticalPad(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{"x1": jpegBytes(t, 400, 300)})
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip", PadImage: true}}
	dev := device.Config{Resolution: [2]int{200, 100}, Orientation: device.Vertical}
	p := newPlugin(testSecrets{plugin.SecretName: "secret"}, store, dev)

	img, err := p.GenerateImage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 200), img.Bounds().Size())
}

func TestGenerateImage_EmptyAlbum(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{})
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip"}}
	p := newPlugin(testSecrets{plugin.SecretName: "secret"}, store, device.Config{Resolution: [2]int{200, 100}})

	img, err := p.GenerateImage(context.Background())
	assert.Nil(t, img)
	assert.ErrorIs(t, err, plugin.ErrLoadImage)
	assert.ErrorIs(t, err, immich.ErrEmptyAlbum)
	assert.Contains(t, err.Error(), "failed to load image")
	assert.Empty(t, store.saves, "settings are only persisted after success")
}

func TestGenerateImage_AlbumNotFound(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{})
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Missing"}}
	p := newPlugin(testSecrets{plugin.SecretName: "secret"}, store, device.Config{Resolution: [2]int{200, 100}})

	_, err := p.GenerateImage(context.Background())
	assert.ErrorIs(t, err, immich.ErrAlbumNotFound)
	assert.False(t, errors.Is(err, plugin.ErrLoadImage))
}

func TestGenerateImage_Unauthorized(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{})
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip"}}
	p := newPlugin(testSecrets{plugin.SecretName: "wrong"}, store, device.Config{Resolution: [2]int{200, 100}})

	_, err := p.GenerateImage(context.Background())
	var serr *api.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
}

func TestGenerateImage_MetadataTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	store := &testSettings{conf: settings.Settings{ImmichServerURL: srv.URL, AlbumName: "Trip"}}
	p := plugin.New(testSecrets{plugin.SecretName: "secret"}, store, device.Config{Resolution: [2]int{200, 100}},
		plugin.WithLogger(slog.New(slog.DiscardHandler)),
		plugin.WithMetadataTimeout(20*time.Millisecond),
	)

	_, err := p.GenerateImage(context.Background())
	var cerr *api.ConnectivityError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateImage_SettingsFileUntouched(t *testing.T) {
	srv := newImmichServer(t, map[string][]byte{"x1": jpegBytes(t, 400, 300)})
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := "# living room\nimmichServerUrl = \"" + srv.URL + "\"\nalbumName = \"Trip\"\nrefreshMinutes = 30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p := newPlugin(testSecrets{plugin.SecretName: "secret"}, settings.NewFileStore(path),
		device.Config{Resolution: [2]int{200, 100}})
	_, err := p.GenerateImage(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}
