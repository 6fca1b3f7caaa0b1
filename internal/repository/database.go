package repository

import (
	"fmt"

	"github.com/blues/cfledger/internal/config"
	"github.com/blues/cfledger/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Open 按配置连接数据库，不做迁移
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver != "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		// sqlite 单连接写入
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func tables() []interface{} {
	return []interface{}{
		&model.ProjectModel{},
		&model.ContributeRecordModel{},
		&model.EventModel{},
		&model.RefundRecordModel{},
		&model.SettlementRecordModel{},
	}
}

// Migrate 自动迁移全部表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(tables()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Reset 清空并重建投影表。账本状态只存在于内存，新进程的交易哈希和项目ID从头开始，
// 旧投影必须在投递前清除
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(tables()...); err != nil {
		return fmt.Errorf("failed to drop projection tables: %w", err)
	}
	return Migrate(db)
}

// Init 连接并迁移
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
