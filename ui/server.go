package ui

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/raw-labs/machine-prediction-demo/app"
	"github.com/raw-labs/machine-prediction-demo/internal"
)

// Server is the public dashboard API
type Server struct {
	router     *gin.Engine
	machines   *app.MachineService
	prediction *app.PredictionService
	logger     *internal.Logger
}

var registerFieldNames sync.Once

// NewServer creates the API server with its routes installed
func NewServer(machines *app.MachineService, prediction *app.PredictionService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	// Report request fields by their JSON names in validation errors.
	registerFieldNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})

	router := gin.New()
	router.Use(ginzap.Ginzap(logger.Zap(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger.Zap(), true))

	s := &Server{
		router:     router,
		machines:   machines,
		prediction: prediction,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/machines/list")
	})

	m := s.router.Group("/machines")

	// Dashboard reads
	m.GET("/list", s.handleMachineList)
	m.GET("/warnings", s.handleWarnings)
	m.GET("/report/failures_month", s.handleFailuresByMonth)
	m.GET("/report/failures_model", s.handleFailuresByModel)
	m.GET("/:id/status", s.handleMachineStatus)
	m.GET("/:id/telemetry", s.handleMachineTelemetry)

	// Prediction
	m.POST("/create_features", s.handleCreateFeatures)
	m.POST("/model_train", s.handleModelTrain)
	m.GET("/classifiers", s.handleClassifiers)
	m.GET("/features", s.handleFeatureList)
	m.GET("/features/:name/summary", s.handleFeatureSummary)
	m.GET("/features/:name/export", s.handleFeatureExport)
}

// Handler exposes the router for an http.Server or tests
func (s *Server) Handler() http.Handler {
	return s.router
}
