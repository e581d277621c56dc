package health

import (
	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/pkg/sdk"
)

// Availability reports which optional backend components came up
type Availability struct {
	TranscriberLoaded bool `json:"transcriber_loaded"`
	MediaToolsLoaded  bool `json:"media_tools_loaded"`
	KeyCount          int  `json:"api_key_count"`
}

var availability Availability

// Record component availability for the status report
func Init(a Availability) {
	availability = a
}

// Return status of the API along with component availability
func GetStatus(c *gin.Context) {
	res := sdk.NewSuccessResponse("OK", availability)
	c.JSON(res.AsGinResponse())
}
