package api

import (
	"github.com/gin-gonic/gin"
)

func (m ApiHandler) listUniverse(c *gin.Context) {
	c.JSON(200, gin.H{
		"constituents": m.Universe.List(),
	})
}
