package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	internalsettings "github.com/sebastian05-bossu/1337loader/internal/settings"
)

// SiteHandler serves public site metadata.
type SiteHandler struct{}

// NewSiteHandler constructs a SiteHandler.
func NewSiteHandler() *SiteHandler {
	return &SiteHandler{}
}

// Info returns the configured site name.
func (h *SiteHandler) Info(c *gin.Context) {
	name := internalsettings.DefaultSiteName
	if raw, ok := internalsettings.DBConfigValue(internalsettings.SiteNameKey); ok {
		if parsed, okParse := internalsettings.ParseString(raw); okParse && parsed != "" {
			name = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"site_name": name})
}
