package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"aicruiter/internal/apperr"
	"aicruiter/internal/models"
	"aicruiter/internal/telemetry"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// OpenPostgres connects with the given DSN and migrates the interview tables.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return Open(postgres.Open(dsn))
}

// Open connects through dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.InterviewRecord{}, &models.FeedbackRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *GormStore) Create(ctx context.Context, interview *models.Interview) (string, error) {
	ctx, span := tracer.Start(ctx, "GormStore.Create")
	defer span.End()

	if err := prepareForCreate(interview, func() string { return uuid.New().String() }, time.Now().UTC()); err != nil {
		return "", err
	}
	span.SetAttributes(telemetry.String("interview_id", interview.ID))

	record := toRecord(interview)
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		span.RecordError(err)
		return "", apperr.Store("failed to save interview", err)
	}
	return record.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id, ownerID string) (*models.Interview, error) {
	query := s.DB.WithContext(ctx).Where("id = ?", id)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}

	var record models.InterviewRecord
	err := query.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, apperr.Store("failed to load interview", err)
	}

	interview := toDomain(record)
	return &interview, nil
}

func (s *GormStore) ListForOwner(ctx context.Context, ownerID string) ([]models.Interview, error) {
	var records []models.InterviewRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Store("failed to list interviews", err)
	}
	return toDomainList(records), nil
}

func (s *GormStore) ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]models.Interview, error) {
	var records []models.InterviewRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND scheduled_at > ?", ownerID, after).
		Order("scheduled_at asc").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Store("failed to list scheduled interviews", err)
	}
	return toDomainList(records), nil
}

func (s *GormStore) AppendFeedback(ctx context.Context, postingID string, feedback models.Feedback) error {
	ctx, span := tracer.Start(ctx, "GormStore.AppendFeedback")
	defer span.End()
	span.SetAttributes(telemetry.String("interview_id", postingID))

	record := models.FeedbackRecord{
		InterviewID:   postingID,
		Rating:        feedback.Rating,
		Comments:      feedback.Comments,
		CandidateName: feedback.CandidateName,
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		span.RecordError(err)
		return apperr.Store("failed to save feedback", err)
	}
	return nil
}

func (s *GormStore) UpdateRatingMirror(ctx context.Context, postingID string, rating int) error {
	result := s.DB.WithContext(ctx).
		Model(&models.InterviewRecord{}).
		Where("id = ?", postingID).
		Update("rating", rating)
	if result.Error != nil {
		return apperr.Store("failed to update interview rating", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toDomainList(records []models.InterviewRecord) []models.Interview {
	out := make([]models.Interview, 0, len(records))
	for _, record := range records {
		out = append(out, toDomain(record))
	}
	return out
}
