package server

import (
	"context"
	"errors"
	"image"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/menta2k/ph-analyzer/internal/log"
	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/processing"
	"github.com/menta2k/ph-analyzer/pkg/types"
)

// PredictRequest is the JSON body of POST /predict.
type PredictRequest struct {
	Image       string `json:"image" validate:"required"`
	IncludeCrop bool   `json:"include_crop"`
}

// PredictResponse is returned for a successful estimate.
type PredictResponse struct {
	Prediction      float64       `json:"prediction"`
	Report          *types.Report `json:"report"`
	CroppedImageB64 string        `json:"cropped_image_b64,omitempty"`
	RequestID       string        `json:"request_id"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code,omitempty"`
	Details   string        `json:"details,omitempty"`
	Report    *types.Report `json:"report,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

const defaultRequestTimeout = 30 * time.Second

var errMissingImage = errors.New("no image provided")

// StatusFor maps a pipeline error kind to an HTTP status.
func StatusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindDecodeFailure:
		return fiber.StatusBadRequest
	case pipeline.KindNoMarkerFound, pipeline.KindNoColorRegionFound, pipeline.KindDegenerateRegion:
		return fiber.StatusUnprocessableEntity
	case pipeline.KindPredictorFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Predict accepts either a multipart "image" file or a JSON body with a base64
// image and returns the pH estimate.
func (s *Server) Predict(ctx *fiber.Ctx) error {
	requestID := GetRequestID(ctx)
	timeout := s.config.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c, cancel := context.WithTimeout(ctx.UserContext(), timeout)
	defer cancel()

	img, includeCrop, err := s.readImage(ctx, requestID)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) || errors.Is(err, errMissingImage) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:     errMissingImage.Error(),
				Code:      "MISSING_IMAGE",
				Details:   err.Error(),
				RequestID: requestID,
			})
		}
		if pipeline.KindOf(err) != pipeline.KindDecodeFailure {
			err = pipeline.DecodeError(err)
		}
		return s.handleError(ctx, requestID, err, "decode_image")
	}

	result, err := s.analyzer.Analyze(c, img)
	if err != nil {
		return s.handleError(ctx, requestID, err, "analyze")
	}

	report := result.Report()
	if !result.Success() {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"stage":      result.Stage,
			"reason":     report.Reason,
		}).Warn("Partial analysis")
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:     report.Message,
			Code:      report.Reason,
			Report:    report,
			RequestID: requestID,
		})
	}

	resp := PredictResponse{
		Prediction: result.PH,
		Report:     report,
		RequestID:  requestID,
	}
	if includeCrop && result.PadImage != nil {
		crop, err := s.processor.EncodeDataURL(result.PadImage, processing.FormatJPEG, s.config.CropQuality)
		if err != nil {
			return s.handleError(ctx, requestID, err, "encode_crop")
		}
		resp.CroppedImageB64 = crop
	}

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"prediction": result.PH,
	}).Debug("Prediction completed")

	return ctx.JSON(resp)
}

func (s *Server) readImage(ctx *fiber.Ctx, requestID string) (image.Image, bool, error) {
	file, err := ctx.FormFile("image")
	if err == nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		content, err := file.Open()
		if err != nil {
			return nil, false, err
		}
		defer content.Close()

		includeCrop, _ := strconv.ParseBool(ctx.FormValue("include_crop"))
		img, err := s.analyzer.LoadImageFromReader(content)
		return img, includeCrop, err
	}

	if len(ctx.Body()) == 0 {
		return nil, false, errMissingImage
	}

	var req PredictRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, false, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, false, err
	}

	img, err := s.analyzer.DecodeBase64(req.Image)
	return img, req.IncludeCrop, err
}

func (s *Server) handleError(ctx *fiber.Ctx, requestID string, err error, operation string) error {
	kind := pipeline.KindOf(err)
	status := StatusFor(kind)

	entry := s.log.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"kind":       kind.String(),
		"path":       ctx.Path(),
		"operation":  operation,
	})
	if status >= fiber.StatusInternalServerError {
		entry.Error("Operation failed")
	} else {
		entry.Warn("Operation failed")
	}

	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      kind.String(),
		RequestID: requestID,
	}
	if status == fiber.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	return ctx.Status(status).JSON(resp)
}
