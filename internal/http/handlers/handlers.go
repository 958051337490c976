package handlers

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/assess"
	"github.com/dasper/backend/internal/manager"
	"github.com/dasper/backend/internal/models"
	"github.com/dasper/backend/internal/regional"
)

type Handler struct {
	Models   *manager.Manager
	Pipeline *assess.Pipeline
	Regions  regional.Store
	Logger   zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	st := h.Models.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": st.Loaded,
	})
}

// @Summary Assess building damage
// @Description Run severity, geometry and cost estimation over one building photo
// @Tags assess
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "building photo (jpeg or png)"
// @Param building_type formData string false "residential | commercial | industrial"
// @Param damage_types formData string false "comma-separated damage keywords"
// @Param city formData string false "city for regional cost lookup"
// @Param region_type formData string false "urban | rural | sez"
// @Param lat formData number false "pin latitude"
// @Param lon formData number false "pin longitude"
// @Success 200 {object} models.AssessmentResult
// @Failure 400 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/assess [post]
func (h *Handler) Assess(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "image file required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot open uploaded file", err.Error())
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_IMAGE", "file is not a decodable jpeg/png image", err.Error())
		return
	}

	req := assess.Request{
		BuildingType: c.PostForm("building_type"),
		Location:     locationFromForm(c),
	}
	if raw := c.PostForm("damage_types"); raw != "" {
		for _, dt := range strings.Split(raw, ",") {
			if dt = strings.TrimSpace(dt); dt != "" {
				req.DamageTypes = append(req.DamageTypes, dt)
			}
		}
	}

	result, err := h.Pipeline.Assess(c.Request.Context(), img, req)
	if err != nil {
		h.Logger.Error().Err(err).Msg("assessment failed")
		writeError(c, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "assessment failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func locationFromForm(c *gin.Context) *models.LocationHint {
	city := c.PostForm("city")
	regionType := c.PostForm("region_type")
	latStr, lonStr := c.PostForm("lat"), c.PostForm("lon")
	if city == "" && regionType == "" && latStr == "" {
		return nil
	}
	loc := &models.LocationHint{City: city, RegionType: regionType}
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			loc.Lat, loc.Lon, loc.HasPin = lat, lon, true
		}
	}
	return loc
}

// @Summary Model status
// @Tags model
// @Produce json
// @Success 200 {object} manager.Status
// @Router /api/model/status [get]
func (h *Handler) ModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Models.Status())
}

// @Summary Preload the model bundle
// @Tags model
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/model/preload [post]
func (h *Handler) ModelPreload(c *gin.Context) {
	if err := h.Models.Preload(c.Request.Context()); err != nil {
		writeError(c, http.StatusServiceUnavailable, "MODEL_LOAD_FAILED", "model preload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "loaded"})
}

// @Summary Unload the model bundle
// @Tags model
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/model/unload [post]
func (h *Handler) ModelUnload(c *gin.Context) {
	h.Models.ForceUnload("api request")
	c.JSON(http.StatusOK, gin.H{"status": "unloaded"})
}

// @Summary List regional cost profiles
// @Tags regional
// @Produce json
// @Success 200 {array} models.RegionalCostProfile
// @Router /api/regional-costs [get]
func (h *Handler) RegionalCosts(c *gin.Context) {
	list, err := h.Regions.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "failed to list regional costs", err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Regional cost profile for one city
// @Tags regional
// @Produce json
// @Param city path string true "city name"
// @Success 200 {object} models.RegionalCostProfile
// @Router /api/regional-costs/{city} [get]
func (h *Handler) RegionalCostByCity(c *gin.Context) {
	profile, err := h.Regions.Profile(c.Request.Context(), c.Param("city"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "failed to look up regional cost", err.Error())
		return
	}
	c.JSON(http.StatusOK, profile)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
