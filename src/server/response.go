package server

import "github.com/gin-gonic/gin"

// -----------------------------------------------------------------------------
// Response envelope shared by every endpoint.
// -----------------------------------------------------------------------------

type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// -----------------------------------------------------------------------------

func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(200, envelope{Status: "success", Message: message, Data: data})
}

// -----------------------------------------------------------------------------

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, envelope{Status: "error", Message: message, Code: code})
}
