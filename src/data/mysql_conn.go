package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/stake-plus/countdown/src/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectMySQL opens a gorm DB with sane defaults.
func ConnectMySQL(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("data: empty mysql dsn")
	}
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}
	return Open(mysql.Open(dsn), log)
}

// Open wraps gorm.Open with the shared logger settings. Tests use it with sqlite.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		logging.StdLog(log.Named("gorm"), zapcore.WarnLevel),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", dialector.Name(), err)
	}
	return db, nil
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
