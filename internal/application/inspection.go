package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/logger"
)

var (
	ErrDetectorMissing = errors.New("detector is not configured")
	ErrBaselineMissing = errors.New("baseline photo is not found")
)

type InspectionService struct {
	users     *UserService
	detector  port.AnomalyDetector
	describer port.ReportDescriber
	baselines port.BaselineStore
	log       zerolog.Logger

	// DefaultSensitivity применяется, если ни подпись, ни /check её не задали
	DefaultSensitivity *float64
	// Workers число параллельных сравнений в InspectBatch
	Workers int
}

// InspectionOutput отчёт, разметка в PNG и описание для оператора.
type InspectionOutput struct {
	RequestID   string
	Report      *entity.DetectionReport
	Overlay     []byte
	Description *entity.AiDescription
}

// NewInspectionService создаёт сервис, который ведёт проверку от эталона до отчёта.
func NewInspectionService(
	users *UserService,
	detector port.AnomalyDetector,
	describer port.ReportDescriber,
	baselines port.BaselineStore,
	log zerolog.Logger,
) *InspectionService {
	return &InspectionService{
		users:     users,
		detector:  detector,
		describer: describer,
		baselines: baselines,
		log:       logger.Component(log, "inspection"),
		Workers:   1,
	}
}

// AcceptBaseline запоминает эталон и ждёт снимок обслуживания.
func (s *InspectionService) AcceptBaseline(ctx context.Context, userID, chatID int64, img image.Image) (*entity.User, error) {
	if err := s.baselines.Put(ctx, userID, img); err != nil {
		return nil, fmt.Errorf("store baseline: %w", err)
	}
	return s.users.SetState(ctx, userID, chatID, entity.StateAwaitingMaintenance)
}

// Cancel забывает эталон и возвращает пользователя в главное меню.
func (s *InspectionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if err := s.baselines.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.Cancel(ctx, userID, chatID)
}

// Inspect сравнивает снимок обслуживания с сохранённым эталоном.
// Чувствительность из подписи важнее заданной в /check, та важнее значения по умолчанию.
// После вызова пользователь возвращается в главное меню при любом исходе.
func (s *InspectionService) Inspect(ctx context.Context, userID, chatID int64, maint image.Image, sensitivity *float64) (*InspectionOutput, error) {
	if s.detector == nil {
		return nil, ErrDetectorMissing
	}

	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.Cancel(context.WithoutCancel(ctx), userID, chatID); err != nil {
			s.log.Error().Err(err).Int64("user", userID).Msg("reset user")
		}
	}()

	base, err := s.baselines.Get(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, ErrBaselineMissing
	}
	if err != nil {
		return nil, err
	}

	if sensitivity == nil {
		sensitivity = user.Sensitivity
	}
	if sensitivity == nil {
		sensitivity = s.DefaultSensitivity
	}

	reqID := uuid.NewString()
	log := s.log.With().Str("request_id", reqID).Str("asset", user.AssetID).Logger()
	log.Info().Msg("inspection started")

	res, err := s.detector.Detect(ctx, entity.DetectionRequest{
		AssetID:     user.AssetID,
		Baseline:    base,
		Maintenance: maint,
		Sensitivity: sensitivity,
	})
	if err != nil {
		log.Error().Err(err).Msg("detection failed")
		return nil, fmt.Errorf("detect: %w", err)
	}

	out := &InspectionOutput{RequestID: reqID, Report: res.Report}
	if res.Overlay != nil {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, res.Overlay, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode overlay: %w", err)
		}
		out.Overlay = buf.Bytes()
	}

	if s.describer != nil {
		desc, err := s.describer.Describe(ctx, res.Report, out.Overlay)
		if err != nil {
			log.Warn().Err(err).Msg("describe report")
		} else {
			out.Description = desc
		}
	}

	log.Info().
		Str("label", string(res.Report.ImageLevelLabel)).
		Int("blobs", len(res.Report.Blobs)).
		Msg("inspection finished")
	return out, nil
}

// InspectBatch сравнивает пачку снимков обслуживания с одним эталоном.
// Ошибки отдельных снимков остаются в элементах результата.
func (s *InspectionService) InspectBatch(ctx context.Context, baseline image.Image, reqs []entity.DetectionRequest) (string, []entity.BatchItem, error) {
	if s.detector == nil {
		return "", nil, ErrDetectorMissing
	}
	if baseline == nil {
		return "", nil, ErrBaselineMissing
	}

	reqID := uuid.NewString()
	log := s.log.With().Str("request_id", reqID).Logger()
	log.Info().Int("images", len(reqs)).Int("workers", s.Workers).Msg("batch started")

	items := s.detector.DetectBatch(ctx, baseline, reqs, s.Workers)

	failed, anomalous := 0, 0
	for i, it := range items {
		switch {
		case it.Err != nil:
			failed++
			log.Warn().Err(it.Err).Str("maintenance", reqs[i].MaintenancePath).Msg("batch item failed")
		case it.Result != nil && it.Result.Report.HasAnomalies():
			anomalous++
		}
	}
	log.Info().Int("failed", failed).Int("anomalous", anomalous).Msg("batch finished")
	return reqID, items, nil
}
