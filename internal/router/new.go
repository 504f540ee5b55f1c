package router

import (
	"github.com/nguyentantai21042004/mockjson/internal/logger"
	"github.com/nguyentantai21042004/mockjson/internal/store"
)

type implRouter struct {
	store  store.Store
	logger logger.Logger
}

// New creates a Router serving the given store
func New(st store.Store, log logger.Logger) Router {
	return &implRouter{
		store:  st,
		logger: log,
	}
}
