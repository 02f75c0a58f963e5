package http

import (
	"github.com/go-socfony/internal/application/accesstoken"
	"github.com/go-socfony/internal/application/moment"
	"github.com/go-socfony/internal/application/storage"
	"github.com/go-socfony/internal/application/user"
	"github.com/go-socfony/internal/application/verification"
	"github.com/go-socfony/internal/telemetry"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Verification verification.Service
	AccessTokens accesstoken.Service
	Users        user.Service
	Moments      moment.Service
	Storage      storage.Service
	Metrics      *telemetry.Metrics
}
