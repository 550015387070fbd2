package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// AOIHandler serves stored area-of-interest boundaries.
type AOIHandler struct {
	repo aoi.Repository
}

// NewAOIHandler constructs an AOIHandler.
func NewAOIHandler(repo aoi.Repository) *AOIHandler {
	return &AOIHandler{repo: repo}
}

// aoiResponse is the boundary document returned by Get.
type aoiResponse struct {
	AssetID      string            `json:"asset_id"`
	Name         string            `json:"name,omitempty"`
	Geometry     *geojson.Geometry `json:"geometry"`
	AreaHectares float64           `json:"area_hectares"`
	CellToken    string            `json:"cell_token"`
}

// Get handles GET /api/v1/aoi?asset_id=...  Asset IDs are catalog paths with
// slashes, so the ID travels as a query parameter rather than a path segment.
func (h *AOIHandler) Get(c *gin.Context) {
	assetID := c.Query("asset_id")
	if assetID == "" {
		respondError(c, errors.New(errors.CodeInvalidParam, "asset_id query parameter is required"))
		return
	}

	area, err := h.repo.FindByAssetID(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, aoiResponse{
		AssetID:      area.AssetID,
		Name:         area.Name,
		Geometry:     geojson.NewGeometry(area.Geometry),
		AreaHectares: area.AreaHectares(),
		CellToken:    area.CellToken(),
	})
}
