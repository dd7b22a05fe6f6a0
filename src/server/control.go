package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"stock-watcher/src/config"
	datasource "stock-watcher/src/data_source"
	"stock-watcher/src/data_source/polygon"
	"stock-watcher/src/data_source/yahoo"
	"stock-watcher/src/interfaces"
	"stock-watcher/src/logger"
	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// ControlService
//
// Runtime control of data sources over the same REST surface as the rest of
// the API: list/add/remove sources and update symbol lists, with changes
// persisted back to the YAML config.
// -----------------------------------------------------------------------------

type ControlService struct {
	Config         *config.Config
	DataSource     *datasource.MultiSourceManager
	ConfigPath     string
	Logger         *logger.Logger
	NetworkManager interfaces.INetworkManager
}

// -----------------------------------------------------------------------------

func NewControlService(
	cfg *config.Config,
	ds *datasource.MultiSourceManager,
	cfgPath string,
	log *logger.Logger,
	netMgr interfaces.INetworkManager,
) *ControlService {
	return &ControlService{
		Config:         cfg,
		DataSource:     ds,
		ConfigPath:     cfgPath,
		Logger:         log,
		NetworkManager: netMgr,
	}
}

// -----------------------------------------------------------------------------

// RegisterControl mounts the control endpoints on the API server.
func (s *APIServer) RegisterControl(ctrl *ControlService) {
	s.engine.GET("/api/sources", ctrl.listSources)
	s.engine.POST("/api/sources", ctrl.addSource)
	s.engine.DELETE("/api/sources/:name", ctrl.removeSource)
	s.engine.PUT("/api/sources/:name/symbols", ctrl.updateSymbols)
	s.engine.POST("/api/sources/:name/start", ctrl.startSource)
	s.engine.POST("/api/sources/:name/stop", ctrl.stopSource)
}

// -----------------------------------------------------------------------------

func sourceType(src interfaces.IDataSource) string {
	switch src.(type) {
	case *yahoo.YahooFinanceSource:
		return "yahoo"
	case *polygon.PolygonSource:
		return "polygon"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------

func (ctrl *ControlService) listSources(c *gin.Context) {
	sources := ctrl.DataSource.GetAllSources()
	response := make([]gin.H, 0, len(sources))

	for _, src := range sources {
		response = append(response, gin.H{
			"name":         src.Name(),
			"type":         sourceType(src),
			"is_real_time": src.IsRealTime(),
		})
	}

	c.JSON(200, gin.H{"sources": response})
}

// -----------------------------------------------------------------------------

type addSourceRequest struct {
	Name    string   `json:"name" binding:"required"`
	Type    string   `json:"type" binding:"required"`
	Symbols []string `json:"symbols" binding:"required"`
	APIKey  string   `json:"api_key"`
}

func (ctrl *ControlService) addSource(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if _, err := ctrl.DataSource.GetSource(req.Name); err == nil {
		c.JSON(409, gin.H{"error": fmt.Sprintf("source %s already exists", req.Name)})
		return
	}

	sourceCfg := models.MSourceConfig{
		Name:    req.Name,
		Type:    req.Type,
		Symbols: req.Symbols,
		APIKey:  req.APIKey,
	}

	var newSource interfaces.IDataSource
	switch req.Type {
	case "yahoo":
		newSource = yahoo.NewYahooFinanceSource(ctrl.Config.MConfig, sourceCfg, ctrl.NetworkManager)
	case "polygon":
		src, err := polygon.NewPolygonSource(ctrl.Config.MConfig, sourceCfg)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		newSource = src
	default:
		c.JSON(400, gin.H{"error": fmt.Sprintf("unsupported source type: %s", req.Type)})
		return
	}

	// Add to Manager (Starts it automatically when the manager is running)
	if err := ctrl.DataSource.AddSource(newSource); err != nil {
		ctrl.Logger.Error("Failed to add source: %v", err)
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to add source: %v", err)})
		return
	}

	ctrl.Config.DataSource.Sources = append(ctrl.Config.DataSource.Sources, sourceCfg)
	if err := ctrl.Config.Save(ctrl.ConfigPath); err != nil {
		ctrl.Logger.Error("Failed to persist config: %v", err)
	}

	c.JSON(200, gin.H{"status": "running", "name": req.Name})
}

// -----------------------------------------------------------------------------

func (ctrl *ControlService) removeSource(c *gin.Context) {
	name := c.Param("name")

	if err := ctrl.DataSource.RemoveSource(name); err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}

	// Clean from Config
	newSources := []models.MSourceConfig{}
	for _, src := range ctrl.Config.DataSource.Sources {
		if src.Name != name {
			newSources = append(newSources, src)
		}
	}
	ctrl.Config.DataSource.Sources = newSources
	if err := ctrl.Config.Save(ctrl.ConfigPath); err != nil {
		ctrl.Logger.Error("Failed to persist config: %v", err)
	}

	c.JSON(200, gin.H{"status": "removed", "name": name})
}

// -----------------------------------------------------------------------------

type updateSymbolsRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
}

func (ctrl *ControlService) updateSymbols(c *gin.Context) {
	name := c.Param("name")

	var req updateSymbolsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if len(req.Symbols) == 0 {
		c.JSON(400, gin.H{"error": "symbols list cannot be empty"})
		return
	}

	source, err := ctrl.DataSource.GetSource(name)
	if err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}

	if err := source.UpdateSymbols(req.Symbols); err != nil {
		ctrl.Logger.Error("Failed to update running source: %v", err)
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to update running source: %v", err)})
		return
	}

	// Update Config Persistence
	found := false
	for i, src := range ctrl.Config.DataSource.Sources {
		if src.Name == name {
			ctrl.Config.DataSource.Sources[i].Symbols = req.Symbols
			found = true
			break
		}
	}
	if found {
		if err := ctrl.Config.Save(ctrl.ConfigPath); err != nil {
			ctrl.Logger.Error("Failed to persist config: %v", err)
		}
	}

	ctrl.Logger.Info("UpdateSymbols success for %s. Count: %d", name, len(req.Symbols))
	c.JSON(200, gin.H{"status": "updated", "name": name, "symbol_count": len(req.Symbols)})
}

// -----------------------------------------------------------------------------

func (ctrl *ControlService) startSource(c *gin.Context) {
	name := c.Param("name")

	if err := ctrl.DataSource.StartSource(name); err != nil {
		c.JSON(409, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "running", "name": name})
}

// -----------------------------------------------------------------------------

func (ctrl *ControlService) stopSource(c *gin.Context) {
	name := c.Param("name")

	if err := ctrl.DataSource.StopSource(name); err != nil {
		c.JSON(409, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "stopped", "name": name})
}
