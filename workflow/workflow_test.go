package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog"
	"github.com/airbusgeo/s2-exporter/catalog/entities"
	"github.com/airbusgeo/s2-exporter/common"
	"github.com/airbusgeo/s2-exporter/export"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/processor"
	"github.com/airbusgeo/s2-exporter/raster"
	"github.com/airbusgeo/s2-exporter/workflow"
	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scene(productID string, day int, cloud float64) *entities.Scene {
	return &entities.Scene{
		ID:         fmt.Sprintf("COPERNICUS/S2_SR_HARMONIZED/202401%02dT081329_T36PWC", day),
		ProductID:  productID,
		Date:       time.Date(2024, 1, day, 8, 13, 29, 0, time.UTC),
		CloudCover: cloud,
	}
}

func testScenes() entities.Scenes {
	return entities.Scenes{
		scene("S2A_MSIL2A_20240103T081329_N0510_R078_T36PWC_20240103T115006", 3, 12.5),
		scene("S2A_MSIL2A_20240107T081329_N0510_R078_T36PWC_20240107T115006", 7, 0),
		scene("S2B_MSIL2A_20240112T081329_N0510_R078_T36PWC_20240112T115006", 12, 0),
		scene("S2B_MSIL2A_20240122T081329_N0510_R078_T36PWC_20240122T115006", 22, 4.2),
	}
}

// testPixels returns a 4x4 image covering the area around khartoum_center
func testPixels() *raster.Image {
	img := raster.NewImage(raster.GeoTransform{32.55, 0.005, 0, 15.51, 0, -0.005})
	values := map[string]float64{common.B3: 1000, common.B4: 1000, common.B8: 3000, common.SCL: common.SCLVegetation}
	for _, b := range common.BandsFull() {
		v, ok := values[b]
		if !ok {
			v = 2000
		}
		img.Bands[b] = raster.NewBand(4, 4, v)
	}
	return img
}

func newPipeline(provider *MokeProvider, submitter *MokeSubmitter, ledger *MokeLedger, metrics *workflow.Metrics) *workflow.Pipeline {
	return &workflow.Pipeline{
		Locations: location.Default(),
		Catalog:   &catalog.Catalog{Provider: provider},
		Masker:    processor.NewCloudMasker(),
		Submitter: submitter,
		Ledger:    ledger,
		Metrics:   metrics,
		Clock:     clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       = context.Background()
		provider  *MokeProvider
		submitter *MokeSubmitter
		ledger    *MokeLedger
		metrics   *workflow.Metrics
		pipeline  *workflow.Pipeline
		cfg       workflow.Config
		report    *workflow.Report
		err       error
	)
	const prefix = "S2_Khartoum_khartoum_center_20240301"

	BeforeEach(func() {
		provider = &MokeProvider{scenes: testScenes()}
		submitter = &MokeSubmitter{}
		ledger = &MokeLedger{}
		metrics = workflow.NewMetricsForTesting()
		pipeline = newPipeline(provider, submitter, ledger, metrics)
		cfg = workflow.DefaultConfig()
	})

	JustBeforeEach(func() {
		report, err = pipeline.Run(ctx, cfg)
	})

	Context("with the default config", func() {
		It("should query the catalog once", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.queries).To(HaveLen(1))
			q := provider.queries[0]
			Expect(q.MaxCloud).To(Equal(20.))
			Expect(q.Collection).To(Equal(common.DefaultCollection))
			Expect(q.Start).To(Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(q.End).To(Equal(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)))
			Expect(q.AOI.Center).To(Equal([2]float64{32.5599, 15.5007}))
			Expect(q.AOI.AreaLabel()).To(Equal("4 x 4 km"))
		})

		It("should select the least cloudy scene, the first one on ties", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Scene.Date.Day()).To(Equal(7))
			Expect(report.Scene.TileID).To(Equal("36PWC"))
			Expect(report.Total).To(Equal(4))
			Expect(report.Candidates).To(HaveLen(4))
			Expect(report.Candidates[1].Date.Day()).To(Equal(12))
			Expect(report.Candidates[3].CloudCover).To(Equal(12.5))
		})

		It("should submit the four jobs in order", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(submitter.jobs).To(HaveLen(4))
			var descriptions []string
			for _, j := range submitter.jobs {
				descriptions = append(descriptions, j.Description)
				Expect(j.SceneID).To(Equal(report.Scene.ID))
				Expect(j.Folder).To(Equal("Khartoum_S2_Data"))
			}
			Expect(descriptions).To(Equal([]string{prefix + "_10bands", prefix + "_RGB", prefix + "_NDVI", prefix + "_FULL"}))
			Expect(submitter.jobs[1].Bands).To(Equal(common.BandsRGB()))
			Expect(submitter.jobs[3].Bands).To(ContainElement(common.SCL))
		})

		It("should report the files and the hint", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Files).To(HaveLen(4))
			Expect(report.Files[2].FileName).To(Equal(prefix + "_NDVI.tif"))
			Expect(report.Files[2].Caption).To(Equal("Vegetation Index"))
			Expect(report.Files[2].Handle.ID).To(Equal("task-3"))
			Expect(report.Hint()).To(Equal("lonlat = (32.5599, 15.5007)\ndate = \"2024-01-07\""))
			Expect(report.Text()).To(ContainSubstring("1. Date: 2024-01-07 | Cloud: 0.00% | Tile: 36PWC"))
			Expect(report.Text()).To(ContainSubstring("Area: 4 x 4 km"))
			Expect(report.Stats).To(BeNil())
		})

		It("should record the jobs and count the run", func() {
			Expect(err).NotTo(HaveOccurred())
			jobs, err := pipeline.Jobs(ctx, report.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(4))
			for _, j := range jobs {
				Expect(j.Status).To(Equal(common.StatusSUBMITTED))
				Expect(j.Backend).To(Equal("moke"))
			}
			Expect(testutil.ToFloat64(metrics.Runs.WithLabelValues("success"))).To(Equal(1.))
			Expect(testutil.ToFloat64(metrics.JobsSubmitted.WithLabelValues(export.ProductNDVI))).To(Equal(1.))
		})
	})

	Context("with an unknown location", func() {
		BeforeEach(func() {
			cfg.Location = "atlantis"
		})
		It("should fail before querying the catalog", func() {
			Expect(errors.As(err, &location.ErrUnknownLocation{})).To(BeTrue())
			Expect(report).To(BeNil())
			Expect(provider.queries).To(BeEmpty())
			Expect(testutil.ToFloat64(metrics.Runs.WithLabelValues("failed"))).To(Equal(1.))
		})
	})

	Context("when no scene matches", func() {
		BeforeEach(func() {
			provider.scenes = entities.Scenes{scene("S2A_MSIL2A_20240103T081329_N0510_R078_T36PWC_20240103T115006", 3, 35)}
		})
		It("should return ErrNoScenesFound", func() {
			Expect(errors.As(err, &catalog.ErrNoScenesFound{})).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("2024-01-01"))
			Expect(submitter.jobs).To(BeEmpty())
		})
	})

	Context("when the backend rejects a job", func() {
		BeforeEach(func() {
			submitter.reject = map[string]bool{export.ProductRGB: true}
		})
		It("should submit the other jobs", func() {
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &export.ErrExportSubmission{})).To(BeTrue())
			Expect(report).NotTo(BeNil())
			Expect(submitter.jobs).To(HaveLen(3))
			Expect(report.Files[1].Error).To(ContainSubstring("quota exceeded"))
			Expect(report.Files[3].Handle).NotTo(BeNil())

			jobs, err := pipeline.Jobs(ctx, report.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs[1].Status).To(Equal(common.StatusFAILED))
			for i, j := range jobs {
				Expect(j.Rank).To(Equal(i))
				Expect(j.Product).To(Equal(report.Files[i].Product))
			}
			Expect(jobs[1].Message).To(ContainSubstring("quota exceeded"))
			Expect(testutil.ToFloat64(metrics.Runs.WithLabelValues("partial"))).To(Equal(1.))
			Expect(testutil.ToFloat64(metrics.JobsFailed.WithLabelValues(export.ProductRGB))).To(Equal(1.))
		})
	})

	Context("when the scene carries pixels", func() {
		BeforeEach(func() {
			provider.scenes[1].Bands = testPixels()
		})
		It("should report the statistics of the masked bands", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Stats).To(HaveKey(common.B4))
			Expect(report.Stats[common.B4].Valid).To(Equal(16))
			Expect(report.Stats[common.B4].Mean).To(BeNumerically("~", 0.1, 1e-9))
			Expect(report.Stats[common.SCL].Mean).To(BeNumerically("~", common.SCLVegetation, 1e-9))
			Expect(report.Stats["NDWI"].Mean).To(BeNumerically("~", -0.5, 1e-9))
			Expect(report.EmptyBands).To(BeEmpty())
			Expect(report.Text()).To(ContainSubstring("Band statistics"))
		})
	})
})

var _ = Describe("Config", func() {
	var locations = location.Default()

	It("should validate the default config", func() {
		Expect(workflow.DefaultConfig().Validate(locations)).To(Succeed())
	})

	DescribeTable("invalid configs",
		func(modify func(*workflow.Config)) {
			cfg := workflow.DefaultConfig()
			modify(&cfg)
			Expect(cfg.Validate(locations)).NotTo(Succeed())
		},
		Entry("unknown location", func(c *workflow.Config) { c.Location = "paris" }),
		Entry("end before start", func(c *workflow.Config) { c.StartDate, c.EndDate = "2024-02-28", "2024-01-01" }),
		Entry("invalid date", func(c *workflow.Config) { c.StartDate = "not a date" }),
		Entry("null buffer", func(c *workflow.Config) { c.BufferKm = 0 }),
		Entry("negative buffer", func(c *workflow.Config) { c.BufferKm = -1 }),
		Entry("null cloud cover", func(c *workflow.Config) { c.MaxCloud = 0 }),
		Entry("cloud cover above 100", func(c *workflow.Config) { c.MaxCloud = 101 }),
		Entry("no folder", func(c *workflow.Config) { c.Folder = "" }),
		Entry("parent folder", func(c *workflow.Config) { c.Folder = "../x" }),
		Entry("nested parent folder", func(c *workflow.Config) { c.Folder = "Khartoum_S2_Data/../../x" }),
		Entry("absolute folder", func(c *workflow.Config) { c.Folder = "/tmp/x" }),
		Entry("prefix with a path", func(c *workflow.Config) { c.NamePrefix = "../S2_{LOCATION}" }),
		Entry("prefix with a separator", func(c *workflow.Config) { c.NamePrefix = "x/S2_{LOCATION}" }),
	)

	It("should decode a partial config", func() {
		cfg, err := workflow.DecodeConfig([]byte(`{"location": "tuti_island", "start_date": "2024-01-10T00:00:00Z", "max_cloud": 5}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Location).To(Equal("tuti_island"))
		Expect(cfg.BufferKm).To(Equal(2.))
		Expect(cfg.Folder).To(Equal("Khartoum_S2_Data"))

		q, loc, err := cfg.Query(locations)
		Expect(err).NotTo(HaveOccurred())
		Expect(loc.Description).To(Equal("Tuti Island"))
		Expect(q.Start).To(Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
		Expect(q.MaxCloud).To(Equal(5.))
	})

	It("should accept a nested export folder", func() {
		cfg := workflow.DefaultConfig()
		cfg.Folder = "Khartoum_S2_Data/2024"
		Expect(cfg.Validate(locations)).To(Succeed())
	})

	It("should reject unknown fields", func() {
		_, err := workflow.DecodeConfig([]byte(`{"location": "tuti_island", "cloud": 5}`))
		Expect(err).To(HaveOccurred())
	})
})
