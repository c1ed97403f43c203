package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"citypages_202510/pkg/logger"
)

// 支持的驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options 数据库连接参数
type Options struct {
	Driver  string // postgres(默认) / sqlite
	DSN     string
	LogMode string // dev 打印所有 SQL，其余只打印错误
}

// InitDB 初始化数据库连接
// models: 需要自动建表/迁移的结构体指针
func InitDB(opts Options, log *logger.Logger, models ...interface{}) (*gorm.DB, error) {
	log = logger.OrNop(log)

	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	// 开发环境下打印所有 SQL，方便调试
	level := gormlogger.Error
	if strings.EqualFold(opts.LogMode, "dev") {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 SQL DB 失败: %w", err)
	}

	if dialector.Name() == DriverSQLite {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("database connected", "driver", dialector.Name())

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("自动建表出错: %w", err)
		}
	}

	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("数据库 DSN 为空")
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverPostgres, "postgresql":
		return postgres.Open(dsn), nil
	case DriverSQLite, "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
}

// Close 关闭连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
