package logging

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID en-tête propagé vers le client
const HeaderRequestID = "X-Request-ID"

// RequestIDHandler type spécifique pour Fx
type RequestIDHandler gin.HandlerFunc

// RequestIDMiddleware reprend l'identifiant fourni par le client ou en génère un
func RequestIDMiddleware() RequestIDHandler {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
