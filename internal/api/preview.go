package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/civic-eye/internal/exif"
	"github.com/mr1hm/civic-eye/internal/geo"
)

type previewMetadata struct {
	HasGPS         bool            `json:"hasGps"`
	Location       *geo.Coordinate `json:"location,omitempty"`
	CapturedAt     *time.Time      `json:"capturedAt,omitempty"`
	AccuracyMeters *float64        `json:"accuracyMeters,omitempty"`
}

// locationPreview gives the reporter advisory feedback on a photo before
// upload. The verdict never changes issue state.
func (h *Handler) locationPreview(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.PostForm("latitude"), 64)
	lng, errLng := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude form fields are required"})
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
		return
	}
	defer f.Close()

	meta := exif.Extract(io.LimitReader(f, h.maxUpload))
	current := geo.Coordinate{Latitude: lat, Longitude: lng}
	verdict, err := h.verifier.Policy().Preview(meta, &current)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.metrics != nil {
		h.metrics.PreviewChecks.WithLabelValues(string(verdict.Tier)).Inc()
	}

	md := previewMetadata{
		HasGPS:         meta.HasGPS,
		Location:       meta.Location(),
		CapturedAt:     meta.CapturedAt,
		AccuracyMeters: meta.AccuracyMeters,
	}
	c.JSON(http.StatusOK, gin.H{"verdict": verdict, "metadata": md})
}
