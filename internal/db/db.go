package db

import (
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/glitchbyte/streambot/internal/chat"
)

func Connect(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	logger.Info("database connected")
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&chat.User{}, &chat.Message{}, &chat.Turn{})
}
