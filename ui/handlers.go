package ui

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raw-labs/machine-prediction-demo/adapters/excel"
	"github.com/raw-labs/machine-prediction-demo/app"
	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
)

type createFeaturesRequest struct {
	MeasureDays    int    `json:"measureDays" binding:"required,gt=0"`
	PredictionDays int    `json:"predictionDays" binding:"required,gt=0"`
	Start          string `json:"start" binding:"required,datetime=2006-01-02"`
	End            string `json:"end" binding:"required,datetime=2006-01-02"`
}

type createFeaturesResponse struct {
	Name     core.DatasetID `json:"name"`
	Failures int            `json:"failures"`
	Good     int            `json:"good"`
}

// Pointers let zero values through "required". Classifier decodes as a
// float so that 2.0 is accepted and 1.5 is an invalid parameter.
type modelTrainRequest struct {
	Name       string   `json:"name" binding:"required"`
	Classifier *float64 `json:"classifier" binding:"required"`
	TrainTest  *float64 `json:"train_test" binding:"required"`
	GoodBad    *float64 `json:"good_bad" binding:"required"`
}

type featureSummaryResponse struct {
	dataset.Info
	Window   dataset.ExtractionWindow `json:"window"`
	Features []dataset.FeatureSummary `json:"features"`
}

func (s *Server) handleMachineList(c *gin.Context) {
	rows, err := s.machines.ListMachines(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleWarnings(c *gin.Context) {
	warnings, err := s.machines.Warnings(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (s *Server) handleFailuresByMonth(c *gin.Context) {
	rows, err := s.machines.FailuresByMonth(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleFailuresByModel(c *gin.Context) {
	rows, err := s.machines.FailuresByModel(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func machineID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.NewInvalidParameterError("machine_id", fmt.Sprintf("%q is not an integer", raw))
	}
	return id, nil
}

func (s *Server) handleMachineStatus(c *gin.Context) {
	id, err := machineID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	row, err := s.machines.Status(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, core.NewInvalidParameterError(field, "is required")
	}
	t, err := time.Parse(dataset.DateLayout, value)
	if err != nil {
		return time.Time{}, core.NewInvalidParameterError(field, fmt.Sprintf("%q is not a date (%s)", value, dataset.DateLayout))
	}
	return t, nil
}

func (s *Server) handleMachineTelemetry(c *gin.Context) {
	id, err := machineID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	start, err := parseDate("start", c.Query("start"))
	if err != nil {
		s.fail(c, err)
		return
	}
	end, err := parseDate("end", c.Query("end"))
	if err != nil {
		s.fail(c, err)
		return
	}

	report, err := s.machines.Telemetry(c.Request.Context(), id, start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCreateFeatures(c *gin.Context) {
	var req createFeaturesRequest
	if !s.bindJSON(c, &req) {
		return
	}
	start, err := parseDate("start", req.Start)
	if err != nil {
		s.fail(c, err)
		return
	}
	end, err := parseDate("end", req.End)
	if err != nil {
		s.fail(c, err)
		return
	}

	ds, err := s.prediction.CreateFeatures(c.Request.Context(), dataset.ExtractionWindow{
		MeasureDays:    req.MeasureDays,
		PredictionDays: req.PredictionDays,
		Start:          start,
		End:            end,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, createFeaturesResponse{
		Name:     ds.ID,
		Failures: ds.TotalPositive,
		Good:     ds.TotalNegative,
	})
}

func classifierKind(v float64) (evaluation.ClassifierKind, error) {
	if v != math.Trunc(v) {
		return 0, core.NewInvalidParameterError("classifier", fmt.Sprintf("%v is not an integer", v))
	}
	if v < 0 || v >= float64(len(evaluation.ClassifierKinds)) {
		return 0, core.NewInvalidParameterError("classifier",
			fmt.Sprintf("must be between 0 and %d, got %v", len(evaluation.ClassifierKinds)-1, v))
	}
	return evaluation.ParseClassifierKind(int(v))
}

func (s *Server) handleModelTrain(c *gin.Context) {
	var req modelTrainRequest
	if !s.bindJSON(c, &req) {
		return
	}
	kind, err := classifierKind(*req.Classifier)
	if err != nil {
		s.fail(c, err)
		return
	}

	report, err := s.prediction.Train(c.Request.Context(), app.TrainRequest{
		Name:       datasetName(req.Name),
		Classifier: kind,
		Split: evaluation.SplitParams{
			TrainFraction:      *req.TrainTest,
			TargetPositiveRate: *req.GoodBad,
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// datasetName passes client names through untouched; stores answer
// NotFound for anything they never issued.
func datasetName(s string) core.DatasetID {
	return core.DatasetID(strings.TrimSpace(s))
}

func (s *Server) handleClassifiers(c *gin.Context) {
	c.JSON(http.StatusOK, s.prediction.Classifiers())
}

func (s *Server) handleFeatureList(c *gin.Context) {
	infos, err := s.prediction.Datasets(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if infos == nil {
		infos = []dataset.Info{}
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleFeatureSummary(c *gin.Context) {
	ds, err := s.prediction.Dataset(c.Request.Context(), datasetName(c.Param("name")))
	if err != nil {
		s.fail(c, err)
		return
	}
	features := ds.Features
	if features == nil {
		features = []dataset.FeatureSummary{}
	}
	c.JSON(http.StatusOK, featureSummaryResponse{Info: ds.Info(), Window: ds.Window, Features: features})
}

func (s *Server) handleFeatureExport(c *gin.Context) {
	ds, err := s.prediction.Dataset(c.Request.Context(), datasetName(c.Param("name")))
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteDataset(&buf, ds); err != nil {
		s.fail(c, fmt.Errorf("failed to export dataset %s: %w", ds.ID, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, ds.ID))
	c.Data(http.StatusOK, excel.ContentType, buf.Bytes())
}
