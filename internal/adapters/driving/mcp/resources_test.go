package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "sercha-docs://documents/20240315_0930_00",
			expected: "20240315_0930_00",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/20240315_0930_00",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "sercha-docs://documents/20240315_0930_00/paper.jpg",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleLabelsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists labels", func(t *testing.T) {
		labels := &mockLabelService{labels: []domain.Label{finance, tax}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Labels: labels})
		require.NoError(t, err)

		result, err := server.handleLabelsResource(ctx, makeReadResourceRequest("sercha-docs://labels"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []map[string]string
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, []map[string]string{
			{"name": "Finance", "color": "#00ff00"},
			{"name": "Tax", "color": "#ff0000"},
		}, got)
	})

	t.Run("no label service is an empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		result, err := server.handleLabelsResource(ctx, makeReadResourceRequest("sercha-docs://labels"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()
	doc := &stubDoc{id: "20240315_0930_00", pages: 1}
	docs := &mockDocumentService{docs: map[string]domain.Document{doc.id: doc}}

	server, err := NewServer(&Ports{Search: &mockSearchService{}, Documents: docs})
	require.NoError(t, err)

	result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-docs://documents"))

	require.NoError(t, err)
	var got []DocumentOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	require.Len(t, got, 1)
	assert.Equal(t, doc.id, got[0].DocumentID)
}

func TestServer_handleDocumentTextResource(t *testing.T) {
	ctx := context.Background()
	doc := &stubDoc{id: "20240315_0930_00", pages: 1, text: "electricity invoice"}

	t.Run("returns document text", func(t *testing.T) {
		docs := &mockDocumentService{docs: map[string]domain.Document{doc.id: doc}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Documents: docs})
		require.NoError(t, err)

		uri := "sercha-docs://documents/" + doc.id
		result, err := server.handleDocumentTextResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "electricity invoice", result.Contents[0].Text)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		docs := &mockDocumentService{docs: map[string]domain.Document{}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Documents: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentTextResource(ctx, makeReadResourceRequest("sercha-docs://documents/missing"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("service failure is wrapped", func(t *testing.T) {
		docs := &mockDocumentService{getErr: errors.New("disk gone")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Documents: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentTextResource(ctx, makeReadResourceRequest("sercha-docs://documents/"+doc.id))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document: disk gone")
	})

	t.Run("no document service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentTextResource(ctx, makeReadResourceRequest("sercha-docs://documents/"+doc.id))

		require.Error(t, err)
	})
}
