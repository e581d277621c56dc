package stats

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/pkg/keypool"
	"github.com/face2phrase/backend/pkg/sdk"
)

var pool *keypool.Pool

// Attach the credential pool whose statistics get reported
func Init(p *keypool.Pool) {
	pool = p
}

// GetStats handles GET requests for the credential pool snapshot
func GetStats(c *gin.Context) {
	if pool == nil {
		log.Fatal("[STATS]: Stats module is not initialized")
	}

	resp := sdk.StatsResponse{APIKeys: []sdk.KeyStats{}}
	for _, stat := range pool.Stats() {
		status := "available"
		if stat.InCooldown {
			status = "cooling_down"
		}

		resp.APIKeys = append(resp.APIKeys, sdk.KeyStats{
			KeyNumber:           stat.KeyNumber,
			UsageCount:          stat.UsageCount,
			ConsecutiveFailures: stat.ConsecutiveFailures,
			TotalFailures:       stat.TotalFailures,
			Status:              status,
			CooldownSeconds:     stat.CooldownRemaining.Seconds(),
			TimeSinceSuccess:    stat.TimeSinceSuccess.Seconds(),
		})

		resp.TotalRequests += stat.UsageCount
		if !stat.InCooldown {
			resp.AvailableKeys++
		}
	}

	c.JSON(sdk.NewSuccessResponse("Statistics retrieved successfully", resp).AsGinResponse())
}
