package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mindeeFixture = `{
  "document": {
    "id": "abc",
    "inference": {
      "prediction": {
        "line_items": [
          {"description": "BANANAS", "quantity": 1.0, "unit_price": 1.29, "total_amount": 1.29},
          {"description": " DISH SOAP ", "quantity": null, "unit_price": null, "total_amount": 4.5},
          {"description": "NOTE", "quantity": null, "unit_price": null, "total_amount": null}
        ]
      }
    }
  }
}`

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0fake-jpeg"), 0o600))
	return path
}

func TestMindeeLineItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "receipt.jpg", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Contains(t, string(content), "fake-jpeg")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(mindeeFixture))
	}))
	defer server.Close()

	client, err := NewMindeeClient("secret", server.URL, 0)
	require.NoError(t, err)

	items, err := client.LineItems(context.Background(), writeImage(t))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BANANAS", items[0].Description)
	assert.Equal(t, "1.29", items[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "DISH SOAP", items[1].Description)
}

func TestMindeeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"api_request":{"error":{"message":"Authorization required"}}}`))
	}))
	defer server.Close()

	client, err := NewMindeeClient("bad", server.URL, 0)
	require.NoError(t, err)

	_, err = client.LineItems(context.Background(), writeImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestMindeeMissingFile(t *testing.T) {
	client, err := NewMindeeClient("k", "http://127.0.0.1:0", 0)
	require.NoError(t, err)
	_, err = client.LineItems(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}

func TestNewMindeeClientRequiresKey(t *testing.T) {
	_, err := NewMindeeClient("", "", 0)
	require.Error(t, err)
}
