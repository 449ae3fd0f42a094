package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"ragstore/internal/llm"
	llm_mocks "ragstore/internal/llm/mocks"
	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
	vectorstore_mocks "ragstore/internal/vectorstore/mocks"
)

var testVec = [][]float32{{0.1, 0.2}}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSearchHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)

	hits := []vectorstore.SearchHit{
		{Text: "alpha beta gamma", Metadata: map[string]string{"source": "a.txt"}, Distance: 0.1},
	}
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), []string{"alpha"}).Return(testVec, nil)
	mockStore.EXPECT().Search(gomock.Any(), testVec[0], "docs@v1", 3).Return(hits, nil)

	handler := NewSearchHandler(rag.NewService(mockEmbedder, mockStore, nil))
	rec := postJSON(t, handler, "/api/search", SearchRequest{Query: "alpha", Collection: "docs@v1", TopK: 3})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(resp.Hits))
	}
	if resp.Hits[0].Similarity != 0.9 {
		t.Errorf("similarity = %v, want 0.9", resp.Hits[0].Similarity)
	}
	if resp.Hits[0].Metadata["source"] != "a.txt" {
		t.Errorf("metadata source = %v, want a.txt", resp.Hits[0].Metadata["source"])
	}
}

func TestSearchHandler_DefaultCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)

	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(testVec, nil)
	mockStore.EXPECT().Search(gomock.Any(), gomock.Any(), DefaultCollection, rag.DefaultTopK).Return(nil, nil)

	handler := NewSearchHandler(rag.NewService(mockEmbedder, mockStore, nil))
	rec := postJSON(t, handler, "/api/search", SearchRequest{Query: "alpha"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSearchHandler_BadRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewSearchHandler(rag.NewService(
		llm_mocks.NewMockEmbedder(ctrl), vectorstore_mocks.NewMockChunkStore(ctrl), nil))

	t.Run("empty query", func(t *testing.T) {
		rec := postJSON(t, handler, "/api/search", SearchRequest{Query: "  "})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader([]byte("{broken")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestSearchHandler_EmbeddingFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)

	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, &llm.EmbeddingError{Index: 0, Err: fmt.Errorf("bad status 502")})

	handler := NewSearchHandler(rag.NewService(mockEmbedder, mockStore, nil))
	rec := postJSON(t, handler, "/api/search", SearchRequest{Query: "alpha"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestSearchHandler_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)

	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(testVec, nil)
	mockStore.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("connection refused"))

	handler := NewSearchHandler(rag.NewService(mockEmbedder, mockStore, nil))
	rec := postJSON(t, handler, "/api/search", SearchRequest{Query: "alpha"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAnswerHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockSummarizer := llm_mocks.NewMockSummarizer(ctrl)

	hits := []vectorstore.SearchHit{{Text: "alpha beta gamma", Distance: 0.1}}
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(testVec, nil)
	mockStore.EXPECT().Search(gomock.Any(), gomock.Any(), "docs@v1", rag.DefaultTopK).Return(hits, nil)
	mockSummarizer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("a summary", nil)

	handler := NewAnswerHandler(rag.NewService(mockEmbedder, mockStore, mockSummarizer))
	rec := postJSON(t, handler, "/api/answer", AnswerRequest{Question: "what is alpha", Collection: "docs@v1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp AnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Summary != "a summary" {
		t.Errorf("summary = %q, want %q", resp.Summary, "a summary")
	}
	if len(resp.Hits) != 1 {
		t.Errorf("hits = %d, want 1", len(resp.Hits))
	}
}

func TestAnswerHandler_SummarizerFailureStillReturnsHits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockSummarizer := llm_mocks.NewMockSummarizer(ctrl)

	hits := []vectorstore.SearchHit{{Text: "alpha beta gamma", Distance: 0.1}}
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(testVec, nil)
	mockStore.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(hits, nil)
	mockSummarizer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("timeout"))

	handler := NewAnswerHandler(rag.NewService(mockEmbedder, mockStore, mockSummarizer))
	rec := postJSON(t, handler, "/api/answer", AnswerRequest{Question: "what is alpha"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 on summarizer failure", rec.Code)
	}

	var resp AnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SummaryError == "" {
		t.Error("summary_error is empty, want failure surfaced")
	}
	if len(resp.Hits) != 1 {
		t.Errorf("hits = %d, want 1 despite summarizer failure", len(resp.Hits))
	}
}
