package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/config"
	"github.com/loopfield/interview-engine/internal/httpapi"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

const adminKey = "test-admin-key"

func testKey() [state.KeySize]byte {
	var k [state.KeySize]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func newTestRouter() *gin.Engine {
	loader := config.NewYAMLLoader(tmpl.NewEngine())
	fsys := fstest.MapFS{
		"bundle/interview.yaml": {Data: []byte(`
id: simple-text
title: Simple text
questions:
  - id: q1
    fields:
      - kind: text
        set: name
        label: "Your name"
steps:
  - kind: ask
    ask: q1
`)},
	}
	iv, err := loader.LoadInterview(fsys, "bundle")
	Expect(err).NotTo(HaveOccurred())

	svc := httpapi.NewService(
		map[string]*interview.Interview{"simple-text": iv},
		[]string{"simple-text"},
		testKey(),
		adminKey,
		"/update",
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	httpapi.SetupRoutes(router, svc)
	return router
}

var _ = Describe("HTTP surface", func() {
	var router *gin.Engine

	BeforeEach(func() {
		router = newTestRouter()
	})

	It("rejects GET /interviews without a bearer token", func() {
		req := httptest.NewRequest(http.MethodGet, "/interviews", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists interviews with a valid bearer token", func() {
		req := httptest.NewRequest(http.MethodGet, "/interviews", nil)
		req.Header.Set("Authorization", "Bearer "+adminKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body []map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveLen(1))
		Expect(body[0]["id"]).To(Equal("simple-text"))
	})

	It("drives a full start -> update round trip to completion (spec.md §8 scenario 1)", func() {
		startBody, _ := json.Marshal(map[string]any{
			"context": map[string]any{},
			"data":    map[string]any{},
		})
		req := httptest.NewRequest(http.MethodPost, "/interviews/simple-text", bytes.NewReader(startBody))
		req.Header.Set("Authorization", "Bearer "+adminKey)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var startResp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &startResp)).To(Succeed())
		Expect(startResp["complete"]).To(BeNil())
		content := startResp["content"].(map[string]any)
		Expect(content["type"]).To(Equal("question"))
		encodedState := startResp["state"].(string)
		Expect(encodedState).NotTo(BeEmpty())

		updateBody, _ := json.Marshal(map[string]any{
			"state":     encodedState,
			"responses": map[string]any{"field_0": "Test"},
		})
		req = httptest.NewRequest(http.MethodPost, "/update", bytes.NewReader(updateBody))
		req.Header.Set("Content-Type", "application/json")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var updateResp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &updateResp)).To(Succeed())
		Expect(updateResp["complete"]).To(Equal(true))

		resultBody, _ := json.Marshal(map[string]any{"state": updateResp["state"]})
		req = httptest.NewRequest(http.MethodPost, "/result", bytes.NewReader(resultBody))
		req.Header.Set("Authorization", "Bearer "+adminKey)
		req.Header.Set("Content-Type", "application/json")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resultResp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resultResp)).To(Succeed())
		Expect(resultResp["data"].(map[string]any)["name"]).To(Equal("Test"))
	})

	It("rejects /update when the state blob has been tampered with", func() {
		startBody, _ := json.Marshal(map[string]any{"context": map[string]any{}, "data": map[string]any{}})
		req := httptest.NewRequest(http.MethodPost, "/interviews/simple-text", bytes.NewReader(startBody))
		req.Header.Set("Authorization", "Bearer "+adminKey)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var startResp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &startResp)).To(Succeed())
		tampered := []byte(startResp["state"].(string))
		tampered[0] ^= 0xFF

		updateBody, _ := json.Marshal(map[string]any{"state": string(tampered)})
		req = httptest.NewRequest(http.MethodPost, "/update", bytes.NewReader(updateBody))
		req.Header.Set("Content-Type", "application/json")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown interview id", func() {
		req := httptest.NewRequest(http.MethodGet, "/interviews/does-not-exist", nil)
		req.Header.Set("Authorization", "Bearer "+adminKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
