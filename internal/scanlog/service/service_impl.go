package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	scanlogdomain "github.com/smallbiznis/giftway/internal/scanlog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) scanlogdomain.Recorder {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("scanlog.service"),
		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, entry scanlogdomain.Entry) error {
	reason := strings.TrimSpace(entry.Reason)
	if reason == "" {
		reason = "unknown"
	}

	metadata := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		metadata[key] = value
	}

	record := scanlogdomain.ScanLog{
		ID:        s.genID.Generate(),
		CardID:    entry.CardID,
		CardUID:   strings.TrimSpace(entry.CardUID),
		Reason:    reason,
		Success:   entry.Success,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if ip := strings.TrimSpace(entry.ClientIP); ip != "" {
		record.ClientIP = &ip
	}
	if ua := strings.TrimSpace(entry.UserAgent); ua != "" {
		record.UserAgent = &ua
	}

	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Service) List(ctx context.Context, filter scanlogdomain.ListFilter) ([]scanlogdomain.ScanLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if uid := strings.TrimSpace(filter.CardUID); uid != "" {
		query = query.Where("card_uid = ?", uid)
	}
	if reason := strings.TrimSpace(filter.Reason); reason != "" {
		query = query.Where("reason = ?", reason)
	}
	var logs []scanlogdomain.ScanLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
