package router

import "github.com/gin-gonic/gin"

// Router registers the data routes derived from the store's model
type Router interface {
	Register(r gin.IRouter)
}
