package renderer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/pdfdoc"
)

func TestClampDPI(t *testing.T) {
	const maxDPI = 400
	const maxPixels = 8000

	tests := []struct {
		name      string
		widthPts  float64
		heightPts float64
		requested int
		want      int
	}{
		{
			// Letter at 200 DPI is 1700x2200 px, nowhere near the cap.
			name:     "letter page untouched",
			widthPts: 612, heightPts: 792,
			requested: 200,
			want:      200,
		},
		{
			name:     "request above max dpi is capped first",
			widthPts: 612, heightPts: 792,
			requested: 600,
			want:      400,
		},
		{
			// 36x48in sheet: longest edge 48in. 8000/48 = 166.67 so the
			// clamp lands at 166, under the 192 a naive width-based clamp
			// would give.
			name:     "arch sheet scaled to pixel cap",
			widthPts: 2592, heightPts: 3456,
			requested: 200,
			want:      166,
		},
		{
			// Absurdly long banner drives the scale under the floor.
			name:     "floor holds at 36",
			widthPts: 720, heightPts: 200000,
			requested: 200,
			want:      MinDPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampDPI(tt.widthPts, tt.heightPts, tt.requested, maxDPI, maxPixels)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		TempDir:         t.TempDir(),
		ThumbDPI:        72,
		MeasureDPI:      200,
		MaxRenderPixels: 8000,
		MaxRenderDPI:    400,
	}
}

func seedRenderFixture(t *testing.T, h *database.TestHelper, store *objstore.MemStore) *model.RenderRequest {
	job := &model.Job{
		ID:        "job-r1",
		ProjectID: "proj-1",
		Status:    model.JobStatusIndexed,
		SSOT:      json.RawMessage("{}"),
	}
	require.NoError(t, h.DB.Create(job).Error)
	obj := &model.StorageObject{
		ID:     "so-1",
		JobID:  "job-r1",
		Bucket: config.BucketRawUploads,
		Key:    "proj-1/job-r1/source.pdf",
	}
	require.NoError(t, h.DB.Create(obj).Error)
	// The fake open ignores the file content; any blob will do.
	require.NoError(t, store.PutBytes(h.CreateTestContext(),
		config.BucketRawUploads, obj.Key, []byte("%PDF-1.4 stub"), "application/pdf"))

	req := &model.RenderRequest{
		ID:      "req-1",
		JobID:   "job-r1",
		PageNum: 0,
		Kind:    model.RenderKindThumb,
		DPI:     72,
		Status:  model.RenderStatusPending,
	}
	require.NoError(t, h.DB.Create(req).Error)
	return req
}

func TestProcessRenderRequest(t *testing.T) {
	t.Run("renders uploads and completes", func(t *testing.T) {
		h := database.NewTestHelper(t)
		defer h.Cleanup()
		ctx := h.CreateTestContext()
		store := objstore.NewMemStore()
		req := seedRenderFixture(t, h, store)

		r := New(testConfig(t), store).WithOpenFunc(func(path string) (pdfdoc.Document, error) {
			return &pdfdoc.FakeDocument{Pages: []pdfdoc.FakePage{{Width: 612, Height: 792}}}, nil
		})

		require.NoError(t, r.ProcessRenderRequest(ctx, req))

		var got model.RenderRequest
		require.NoError(t, h.DB.Where("id = ?", req.ID).First(&got).Error)
		assert.Equal(t, model.RenderStatusDone, got.Status)
		assert.Equal(t, "job-r1/thumb-0000.png", got.OutputKey)

		exists, err := store.Exists(ctx, config.BucketPageCache, got.OutputKey)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("page out of range marks request failed", func(t *testing.T) {
		h := database.NewTestHelper(t)
		defer h.Cleanup()
		ctx := h.CreateTestContext()
		store := objstore.NewMemStore()
		req := seedRenderFixture(t, h, store)
		req.PageNum = 9
		require.NoError(t, h.DB.Save(req).Error)

		r := New(testConfig(t), store).WithOpenFunc(func(path string) (pdfdoc.Document, error) {
			return &pdfdoc.FakeDocument{Pages: []pdfdoc.FakePage{{}}}, nil
		})

		err := r.ProcessRenderRequest(ctx, req)
		require.Error(t, err)

		var got model.RenderRequest
		require.NoError(t, h.DB.Where("id = ?", req.ID).First(&got).Error)
		assert.Equal(t, model.RenderStatusFailed, got.Status)
	})

	t.Run("missing source pdf marks request failed", func(t *testing.T) {
		h := database.NewTestHelper(t)
		defer h.Cleanup()
		ctx := h.CreateTestContext()
		store := objstore.NewMemStore()
		req := seedRenderFixture(t, h, store)
		require.NoError(t, store.Remove(ctx, config.BucketRawUploads, "proj-1/job-r1/source.pdf"))

		r := New(testConfig(t), store).WithOpenFunc(func(path string) (pdfdoc.Document, error) {
			return &pdfdoc.FakeDocument{Pages: []pdfdoc.FakePage{{}}}, nil
		})

		err := r.ProcessRenderRequest(ctx, req)
		require.Error(t, err)

		var got model.RenderRequest
		require.NoError(t, h.DB.Where("id = ?", req.ID).First(&got).Error)
		assert.Equal(t, model.RenderStatusFailed, got.Status)
	})
}
