package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"healthcare-interop-dashboard/internal/chart"
	"healthcare-interop-dashboard/internal/lifecycle"
	"healthcare-interop-dashboard/internal/model"
	"healthcare-interop-dashboard/internal/scheduler"
	"healthcare-interop-dashboard/internal/service"
	"healthcare-interop-dashboard/internal/widget"
)

type DashboardController struct {
	charts       *chart.Manager
	widgets      widget.TextUpdater
	sched        scheduler.RefreshScheduler
	life         *lifecycle.Controller
	connectivity service.ConnectivityService
}

func NewDashboardController(
	charts *chart.Manager,
	widgets widget.TextUpdater,
	sched scheduler.RefreshScheduler,
	life *lifecycle.Controller,
	connectivity service.ConnectivityService,
) *DashboardController {
	return &DashboardController{
		charts:       charts,
		widgets:      widgets,
		sched:        sched,
		life:         life,
		connectivity: connectivity,
	}
}

func RegisterDashboardRoutes(router *gin.Engine, controller *DashboardController) {
	router.GET("/", controller.GetDashboard)
	router.GET("/healthz", controller.GetHealth)

	api := router.Group("/api/dashboard")
	{
		api.GET("/widgets", controller.GetWidgets)
		api.GET("/status", controller.GetStatus)
	}
	router.POST("/api/partners/:partner/test", controller.TestPartner)
}

// GetDashboard godoc
// @Summary      Rendered dashboard page
// @Description  Renders every live chart into one HTML page.
// @Tags         dashboard
// @Produce      html
// @Success      200  {string}  string  "Rendered dashboard"
// @Router       / [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	width := ctx.Query("width")
	height := ctx.Query("height")
	if width != "" && height != "" {
		c.charts.Resize(width, height)
	}

	ctx.Header("Content-Type", "text/html; charset=utf-8")
	if err := c.charts.RenderPage(ctx.Writer); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard page")
		ctx.Status(http.StatusInternalServerError)
	}
}

// GetWidgets godoc
// @Summary      Current widget values
// @Description  Returns the formatted value (or error state) of every text widget.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]widget.State
// @Router       /api/dashboard/widgets [get]
func (c *DashboardController) GetWidgets(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.widgets.Snapshot())
}

// GetStatus godoc
// @Summary      Refresh loop status
// @Description  Reports lifecycle state, loop activity and the last outcome per metric query.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dashboard/status [get]
func (c *DashboardController) GetStatus(ctx *gin.Context) {
	state := c.sched.State()
	ctx.JSON(http.StatusOK, gin.H{
		"lifecycle": c.life.State().String(),
		"active":    state.Active(),
		"interval":  state.Interval().String(),
		"queries":   state.Outcomes(),
	})
}

// TestPartner godoc
// @Summary      Manual partner connectivity test
// @Description  Probes one partner system through the gateway. Failures surface an explicit error response, unlike background refresh failures.
// @Tags         partners
// @Produce      json
// @Param        partner  path  string  true  "Partner system"  Enums(epic, cerner)
// @Success      200  {object}  service.ConnectionTestResult
// @Failure      400  {object}  model.Response "Unknown partner"
// @Failure      502  {object}  model.Response "Partner unreachable"
// @Router       /api/partners/{partner}/test [post]
func (c *DashboardController) TestPartner(ctx *gin.Context) {
	partner := ctx.Param("partner")

	result, err := c.connectivity.TestPartner(ctx.Request.Context(), partner)
	if err != nil {
		log.Error().Err(err).Str("partner", partner).Msg("Connectivity test request failed")
		if errors.Is(err, service.ErrUnknownPartner) {
			ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
			return
		}
		ctx.JSON(http.StatusBadGateway, model.NewResponse("Connection test failed: "+err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetHealth godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  model.Response
// @Router       /healthz [get]
func (c *DashboardController) GetHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, model.NewResponse("healthy", gin.H{
		"lifecycle": c.life.State().String(),
	}))
}
