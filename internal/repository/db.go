package repository

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/model"

	_ "github.com/lib/pq" // database.driver: pq のときに使う database/sql ドライバ
	slogGorm "github.com/orandin/slog-gorm" // slogGormはエイリアス
	"gorm.io/driver/postgres"               // postgresドライバ
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB は設定に応じたドライバで PostgreSQL に接続します
func NewDB(cfg config.DatabaseConfig, appLogger *slog.Logger) (*gorm.DB, error) {

	// === slog を利用する GORM Logger の設定 ===
	var gormLogLevel gormlogger.LogLevel
	// 環境変数 APP_ENV によって GORM のログレベルを切り替え
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		gormLogLevel = gormlogger.Info
	} else {
		gormLogLevel = gormlogger.Warn
	}

	slogGormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond), // 遅いクエリの閾値
	)

	// === GORM 接続設定 ===
	db, err := gorm.Open(Dialector(cfg), &gorm.Config{
		Logger: slogGormLogger.LogMode(gormLogLevel),
		// ドライバ固有の一意制約違反を gorm.ErrDuplicatedKey に変換する
		TranslateError: true,
	})
	if err != nil {
		appLogger.Error("Failed to connect to database with GORM", slog.Any("error", err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		return nil, err
	}

	// Pingで接続確認
	if err = sqlDB.Ping(); err != nil {
		appLogger.Error("Error pinging database", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	// コネクションプールの設定
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	appLogger.Info("Database connection established with GORM")

	return db, nil
}

// Dialector は database.driver に対応する GORM の Dialector を返します
func Dialector(cfg config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == config.DatabaseDriverPQ {
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: cfg.URL})
	}
	return postgres.Open(cfg.URL)
}

// AutoMigrate は users / provider_links テーブルと一意制約を作成します
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.ProviderLink{})
}
