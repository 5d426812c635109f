package workflow_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/workflow"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		submitter *MokeSubmitter
		handler   http.Handler
	)

	BeforeEach(func() {
		submitter = &MokeSubmitter{}
		handler = newPipeline(&MokeProvider{scenes: testScenes()}, submitter, &MokeLedger{}, nil).NewHandler()
	})

	serve := func(method, url, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, url, strings.NewReader(body)))
		return rec
	}

	It("should list the locations", func() {
		rec := serve("GET", "/locations", "")
		Expect(rec.Code).To(Equal(200))
		var locations []location.Location
		Expect(json.Unmarshal(rec.Body.Bytes(), &locations)).To(Succeed())
		Expect(locations).To(HaveLen(6))
		Expect(locations[0].Key).To(Equal("bahri"))
	})

	It("should run an export and list its jobs", func() {
		rec := serve("POST", "/exports", `{"location": "omdurman"}`)
		Expect(rec.Code).To(Equal(201), rec.Body.String())
		var report workflow.Report
		Expect(json.Unmarshal(rec.Body.Bytes(), &report)).To(Succeed())
		Expect(report.Location.Key).To(Equal("omdurman"))
		Expect(report.Files).To(HaveLen(4))
		Expect(submitter.jobs).To(HaveLen(4))

		rec = serve("GET", "/exports/"+report.RunID, "")
		Expect(rec.Code).To(Equal(200))
		var jobs []map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &jobs)).To(Succeed())
		Expect(jobs).To(HaveLen(4))
		Expect(jobs[0]["status"]).To(Equal("SUBMITTED"))
	})

	It("should reject invalid configs", func() {
		Expect(serve("POST", "/exports", `{"location": "atlantis"}`).Code).To(Equal(400))
		Expect(serve("POST", "/exports", `{"unknown": 1}`).Code).To(Equal(400))
		Expect(serve("POST", "/exports", `{"max_cloud": 0}`).Code).To(Equal(400))
		Expect(serve("POST", "/exports", `{"folder": "../x"}`).Code).To(Equal(400))
		Expect(serve("POST", "/exports", `{"name_prefix": "../../S2_{LOCATION}"}`).Code).To(Equal(400))
		Expect(submitter.jobs).To(BeEmpty())
	})

	It("should return 404 when nothing matches", func() {
		handler = newPipeline(&MokeProvider{}, submitter, &MokeLedger{}, nil).NewHandler()
		Expect(serve("POST", "/exports", `{"start_date": "2023-01-01", "end_date": "2023-02-01"}`).Code).To(Equal(404))
		Expect(serve("POST", "/catalog/scenes", `{}`).Code).To(Equal(404))
		Expect(serve("GET", "/exports/unknown", "").Code).To(Equal(404))
	})

	It("should list the candidates", func() {
		rec := serve("POST", "/catalog/scenes", `{"max_cloud": 5}`)
		Expect(rec.Code).To(Equal(200), rec.Body.String())
		var res struct {
			Candidates []map[string]interface{} `json:"candidates"`
			Total      int                      `json:"total"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Total).To(Equal(3))
		Expect(res.Candidates).To(HaveLen(3))
		Expect(submitter.jobs).To(BeEmpty())
	})
})
