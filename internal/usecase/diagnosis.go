package usecase

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/example/leafcheck/internal/advisory"
	"github.com/example/leafcheck/internal/classifier"
	"github.com/example/leafcheck/internal/events"
	"github.com/example/leafcheck/internal/logging"
	"github.com/example/leafcheck/internal/upload"
)

// UploadStore persists accepted uploads.
type UploadStore interface {
	Save(ctx context.Context, name string, src io.Reader) (string, error)
	PublicURL(name string) string
}

// UploadTracker records stored uploads for the retention sweeper.
type UploadTracker interface {
	Track(ctx context.Context, name string, storedAt time.Time) error
}

// Submission is one file received from the upload form. A nil Submission
// means the form had no file field.
type Submission struct {
	Filename string
	Body     io.Reader
}

// Diagnosis is the display payload of a resolved upload.
type Diagnosis struct {
	UploadID    string          `json:"upload_id"`
	Label       string          `json:"label"`
	DiseaseName string          `json:"disease_name"`
	Confidence  float64         `json:"confidence"`
	ImageURL    string          `json:"image_url"`
	Info        advisory.Record `json:"info"`
}

// DiagnosisUseCase runs validate, store, classify and lookup for one upload.
type DiagnosisUseCase struct {
	validator      *upload.Validator
	store          UploadStore
	classifier     classifier.Classifier
	tracker        UploadTracker
	publisher      events.Publisher
	logger         *zap.Logger
	publishTimeout time.Duration
	metrics        requestMetrics
}

// NewDiagnosisUseCase constructs the pipeline. tracker and publisher may be nil.
func NewDiagnosisUseCase(
	validator *upload.Validator,
	store UploadStore,
	cls classifier.Classifier,
	tracker UploadTracker,
	publisher events.Publisher,
	logger *zap.Logger,
) *DiagnosisUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &DiagnosisUseCase{
		validator:      validator,
		store:          store,
		classifier:     cls,
		tracker:        tracker,
		publisher:      publisher,
		logger:         logger.Named("diagnosis_usecase"),
		publishTimeout: 2 * time.Second,
	}
}

// AllowedExtensions lists the accepted extensions for user-facing messages.
func (uc *DiagnosisUseCase) AllowedExtensions() []string {
	return uc.validator.AllowedList()
}

// Diagnose runs the pipeline. Validation happens before anything touches
// disk, and classification only runs on a fully stored file. Rejections
// wrap ErrNoFileSelected or ErrInvalidFileType; every other error is a
// failure whose detail must not reach the user.
func (uc *DiagnosisUseCase) Diagnose(ctx context.Context, sub *Submission) (*Diagnosis, error) {
	start := time.Now()
	diagnosis, err := uc.diagnose(ctx, sub)
	stage := StageOf(err)
	uc.metrics.record(stage, time.Since(start))
	if err != nil {
		uc.logger.Debug("pipeline stopped",
			zap.String("stage", string(stage)),
			zap.String("failed_at", string(FailedAt(err))),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return diagnosis, err
}

func (uc *DiagnosisUseCase) diagnose(ctx context.Context, sub *Submission) (*Diagnosis, error) {
	uc.logger.Debug("pipeline stage", zap.String("stage", string(StageAwaitingInput)))
	if sub == nil || sub.Filename == "" || sub.Body == nil {
		uc.logger.Info("upload rejected", zap.String("reason", ErrNoFileSelected.Error()))
		return nil, logging.NewStageError(opValidate, string(StageAwaitingInput), "", ErrNoFileSelected)
	}

	ext, ok := uc.validator.Extension(sub.Filename)
	if !ok {
		uc.logger.Info("upload rejected",
			zap.String("reason", ErrInvalidFileType.Error()),
			zap.String("filename", sub.Filename),
		)
		return nil, logging.NewStageError(opValidate, string(StageAwaitingInput), "", ErrInvalidFileType)
	}

	name := upload.NewStorageName(ext)
	uploadID := upload.UploadID(name)
	opLogger := logging.WithOperation(uc.logger, opPersist, uploadID)
	opLogger.Debug("pipeline stage", zap.String("stage", string(StagePersisting)))

	path, err := uc.store.Save(ctx, name, sub.Body)
	if err != nil {
		wrapped := logging.NewStageError(opPersist, string(StagePersisting), uploadID, err)
		opLogger.Error("failed to store upload", zap.Error(wrapped))
		return nil, wrapped
	}
	uc.track(ctx, name, uploadID)

	opLogger = logging.WithOperation(uc.logger, opClassify, uploadID)
	opLogger.Debug("pipeline stage", zap.String("stage", string(StageClassifying)))
	result, err := uc.classifier.Classify(ctx, path)
	if err != nil {
		wrapped := logging.NewStageError(opClassify, string(StageClassifying), uploadID, err)
		opLogger.Error("classification failed", zap.Error(wrapped))
		return nil, wrapped
	}

	diagnosis := &Diagnosis{
		UploadID:    uploadID,
		Label:       result.Label,
		DiseaseName: classifier.DisplayName(result.Label),
		Confidence:  result.Confidence,
		ImageURL:    uc.store.PublicURL(name),
		Info:        advisory.Lookup(result.Label),
	}
	opLogger.Info("upload diagnosed",
		zap.String("label", diagnosis.Label),
		zap.Float64("confidence", diagnosis.Confidence),
		zap.Bool("specific_advice", advisory.Has(diagnosis.Label)),
	)

	uc.publish(ctx, diagnosis)
	return diagnosis, nil
}

func (uc *DiagnosisUseCase) track(ctx context.Context, name, uploadID string) {
	if uc.tracker == nil {
		return
	}
	if err := uc.tracker.Track(ctx, name, time.Now()); err != nil {
		logging.WithOperation(uc.logger, opPersist, uploadID).Warn("failed to index upload for retention", zap.Error(err))
	}
}

func (uc *DiagnosisUseCase) publish(ctx context.Context, d *Diagnosis) {
	pubCtx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	defer cancel()

	event := events.Diagnosis{
		UploadID:    d.UploadID,
		Label:       d.Label,
		DiseaseName: d.DiseaseName,
		Confidence:  d.Confidence,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.publisher.Publish(pubCtx, event); err != nil {
		logging.WithOperation(uc.logger, "pipeline.publish", d.UploadID).Warn("failed to publish diagnosis event", zap.Error(err))
	}
}
