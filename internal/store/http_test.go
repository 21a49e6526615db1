package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

func newTestHTTPStore(t *testing.T, handler http.HandlerFunc, opts ...HTTPOption) *HTTPStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewHTTPStore(server.URL+"/api", opts...)
	require.NoError(t, err)
	return store
}

func TestHTTPStoreList(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/configs", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"key":"share.maxSize","value":"5000","defaultValue":"1000","type":"filesize"},
			{"key":"general.appUrl","value":null,"defaultValue":"http://localhost","type":"string"}
		]`)
	}, WithToken(" secret "))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "5000", *entries[0].Value)
	assert.Equal(t, settings.TypeFileSize, entries[0].Type)
	assert.Nil(t, entries[1].Value)
	assert.Equal(t, "http://localhost", entries[1].Raw())
}

func TestHTTPStoreListCategoryEscapesCategory(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/configs/admin/odd%2Fname", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `[{"key":"odd/name.x","value":"1","defaultValue":"0","type":"number","allowEdit":true,"description":"d"}]`)
	})

	entries, err := store.ListCategory(context.Background(), "odd/name")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AllowEdit)
	assert.Equal(t, "d", entries[0].Description)
}

func TestHTTPStorePatchSendsUpdatesVerbatim(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/configs/admin", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, []map[string]any{
			{"key": "share.maxSize", "value": float64(5000)},
			{"key": "smtp.enabled", "value": true},
		}, got)

		_, _ = io.WriteString(w, `[{"key":"share.maxSize","value":"5000","defaultValue":"1000","type":"filesize"}]`)
	})

	out, err := store.Patch(context.Background(), []settings.Update{
		{Key: "share.maxSize", Value: 5000},
		{Key: "smtp.enabled", Value: true},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "5000", *out[0].Value)
}

func TestHTTPStoreAdminActions(t *testing.T) {
	t.Parallel()

	var paths []string
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/configs/admin/testEmail":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "admin@example.com", body["email"])
			w.WriteHeader(http.StatusCreated)
		case "/api/configs/admin/logo":
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "logo.png", header.Filename)
			assert.Equal(t, "PNGDATA", string(data))
			w.WriteHeader(http.StatusNoContent)
		case "/api/configs/admin/finishSetup":
			_, _ = io.WriteString(w, `[{"key":"internal.isSetupFinished","value":"true","type":"boolean"}]`)
		default:
			http.NotFound(w, r)
		}
	})

	require.NoError(t, store.SendTestEmail(context.Background(), "admin@example.com"))
	require.NoError(t, store.ChangeLogo(context.Background(), "logo.png", strings.NewReader("PNGDATA")))
	out, err := store.FinishSetup(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, []string{
		"POST /api/configs/admin/testEmail",
		"POST /api/configs/admin/logo",
		"POST /api/configs/admin/finishSetup",
	}, paths)
}

func TestHTTPStoreStatusErrorsPropagate(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := store.ListCategory(context.Background(), "smtp")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "forbidden", statusErr.Body)
}

func TestHTTPStoreMalformedBody(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"`)
	})

	_, err := store.List(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHTTPStoreUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store, err := NewHTTPStore(url)
	require.NoError(t, err)

	_, err = store.List(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestHTTPStorePacingRespectsContext(t *testing.T) {
	t.Parallel()

	calls := 0
	store := newTestHTTPStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = io.WriteString(w, `[]`)
	}, WithRequestRate(0.001, 1))

	_, err := store.List(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.List(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestNewHTTPStoreValidatesURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://host/api", "http://", "://bad"} {
		_, err := NewHTTPStore(raw)
		assert.Errorf(t, err, "expected error for %q", raw)
	}
}
