package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/sshcollectorpro/nodecollector/internal/model"
)

// ErrNoRuns 报告库中没有任何运行记录
var ErrNoRuns = errors.New("no runs recorded")

// ReportStore 基于SQLite的运行报告存储
type ReportStore struct {
	db *gorm.DB
}

// OpenReportStore 初始化SQLite报告库
func OpenReportStore(path string, log *logrus.Logger) (*ReportStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger.New(
			log,
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		SkipDefaultTransaction: true,
	}

	// modernc.org/sqlite 注册的驱动名为 "sqlite"
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.RunReport{}, &model.NodeReport{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return &ReportStore{db: db}, nil
}

// SaveRun 在同一事务中保存运行汇总及各节点记录
func (s *ReportStore) SaveRun(ctx context.Context, summary *model.Summary) (*model.RunReport, error) {
	report := model.NewRunReport(summary)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(report).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save run report: %w", err)
	}
	return report, nil
}

// LatestRun 返回最近一次运行，节点按序号排序
func (s *ReportStore) LatestRun(ctx context.Context) (*model.RunReport, error) {
	var report model.RunReport
	err := s.db.WithContext(ctx).
		Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("node_index ASC") }).
		Order("id DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return &report, nil
}

// Close 关闭数据库连接
func (s *ReportStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
