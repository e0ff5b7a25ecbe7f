package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RotationInterval defines rotation time intervals
type RotationInterval string

const (
	RotationHourly  RotationInterval = "hourly"
	RotationDaily   RotationInterval = "daily"
	RotationWeekly  RotationInterval = "weekly"
	RotationMonthly RotationInterval = "monthly"
)

// LogRotationConfig holds rotation configuration
type LogRotationConfig struct {
	MaxSizeMB      int64
	MaxAge         int // days, 0 keeps all
	MaxBackups     int // 0 keeps all
	TimeInterval   RotationInterval
	EnableRotation bool
}

type LogsManager struct {
	cm              *ConfigManager
	dir             string
	logFileName     string
	logger          *log.Logger
	file            *os.File
	mutex           sync.RWMutex
	rotationConfig  LogRotationConfig
	lastRotateCheck time.Time
	fileSize        int64
}

// NewLogsManager opens the JSON log file configured by `logfile` under the
// app log dir.
func NewLogsManager(cm *ConfigManager) (*LogsManager, error) {
	paths := GetAppPaths("")

	lm := &LogsManager{
		cm:          cm,
		dir:         paths.LogDir,
		logFileName: cm.GetConfigWithDefault("logfile", "farepay.log"),
		logger:      log.New(),
		rotationConfig: LogRotationConfig{
			MaxSizeMB:      cm.GetConfigInt64("log_max_size_mb", 20, 0, 10240),
			MaxAge:         cm.GetConfigInt("log_max_age_days", 30, 0, 3650),
			MaxBackups:     cm.GetConfigInt("log_max_backups", 5, 0, 1000),
			TimeInterval:   RotationInterval(cm.GetConfigWithDefault("log_rotation_interval", "daily")),
			EnableRotation: cm.GetConfigBool("log_enable_rotation", true),
		},
		lastRotateCheck: time.Now(),
	}

	if err := lm.openFile(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return lm, nil
}

// NewWriterLogsManager logs to w without a backing file or rotation.
func NewWriterLogsManager(cm *ConfigManager, w io.Writer) *LogsManager {
	lm := &LogsManager{
		cm:     cm,
		logger: log.New(),
	}
	lm.configure(w)
	return lm
}

func (lm *LogsManager) openFile() error {
	path := filepath.Join(lm.dir, filepath.FromSlash(lm.logFileName))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0640)
	if err != nil {
		return err
	}

	lm.file = file
	if stat, err := file.Stat(); err == nil {
		lm.fileSize = stat.Size()
	}

	lm.configure(file)
	return nil
}

func (lm *LogsManager) configure(w io.Writer) {
	logLevel := "info"
	if lm.cm != nil {
		logLevel = lm.cm.GetConfigWithDefault("log_level", "info")
	}
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', defaulting to 'info'\n", logLevel)
		level = log.InfoLevel
	}
	lm.logger.SetLevel(level)
	lm.logger.SetOutput(w)
	lm.logger.SetFormatter(&log.JSONFormatter{})
}

func callerInfo(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "<???>:1"
	}
	if slash := strings.LastIndex(file, "/"); slash >= 0 {
		file = file[slash+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func (lm *LogsManager) Log(level string, message string, category string) {
	if lm.file != nil && lm.rotationConfig.EnableRotation {
		lm.checkAndRotate()
	}

	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	entry := lm.logger.WithFields(log.Fields{
		"category": category,
		"file":     callerInfo(3),
	})

	switch level {
	case "trace":
		entry.Trace(message)
	case "debug":
		entry.Debug(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	default:
		entry.Info(message)
	}

	lm.fileSize += int64(len(message) + 100)
}

func (lm *LogsManager) Debug(message string, category string) {
	lm.Log("debug", message, category)
}

func (lm *LogsManager) Info(message string, category string) {
	lm.Log("info", message, category)
}

func (lm *LogsManager) Warn(message string, category string) {
	lm.Log("warn", message, category)
}

func (lm *LogsManager) Error(message string, category string) {
	lm.Log("error", message, category)
}

// Close closes the log file. Later writes are dropped.
func (lm *LogsManager) Close() error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.file == nil {
		return nil
	}
	err := lm.file.Close()
	lm.file = nil
	lm.logger.SetOutput(io.Discard)
	return err
}

func (lm *LogsManager) checkAndRotate() {
	now := time.Now()

	if lm.rotationConfig.MaxSizeMB > 0 && lm.fileSize > lm.rotationConfig.MaxSizeMB*1024*1024 {
		lm.rotate("size")
		return
	}

	if now.Sub(lm.lastRotateCheck) > time.Minute {
		lm.lastRotateCheck = now
		if lm.shouldRotateByTime(now) {
			lm.rotate("time")
		}
	}
}

func (lm *LogsManager) shouldRotateByTime(now time.Time) bool {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	if lm.file == nil {
		return false
	}
	stat, err := lm.file.Stat()
	if err != nil {
		return false
	}
	modTime := stat.ModTime()

	switch lm.rotationConfig.TimeInterval {
	case RotationHourly:
		return now.Truncate(time.Hour) != modTime.Truncate(time.Hour)
	case RotationDaily:
		return now.YearDay() != modTime.YearDay() || now.Year() != modTime.Year()
	case RotationWeekly:
		nowYear, nowWeek := now.ISOWeek()
		modYear, modWeek := modTime.ISOWeek()
		return nowWeek != modWeek || nowYear != modYear
	case RotationMonthly:
		return now.Month() != modTime.Month() || now.Year() != modTime.Year()
	}

	return false
}

func (lm *LogsManager) rotate(reason string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	backupFileName := fmt.Sprintf("%s.%s.bak", lm.logFileName, time.Now().Format("2006-01-02_15-04-05"))
	currentPath := filepath.Join(lm.dir, lm.logFileName)

	if lm.file != nil {
		lm.file.Close()
		lm.file = nil
	}

	if err := os.Rename(currentPath, filepath.Join(lm.dir, backupFileName)); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to create log backup %s: %v\n", backupFileName, err)
	}

	if err := lm.openFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reopen log file after rotation: %v\n", err)
		lm.logger.SetOutput(io.Discard)
		return
	}

	lm.cleanupOldBackups()

	lm.logger.WithFields(log.Fields{
		"category": "logrotate",
		"reason":   reason,
		"backup":   backupFileName,
	}).Info("Log rotated")
}

func (lm *LogsManager) cleanupOldBackups() {
	if lm.rotationConfig.MaxAge <= 0 && lm.rotationConfig.MaxBackups <= 0 {
		return
	}

	files, err := filepath.Glob(filepath.Join(lm.dir, lm.logFileName+".*.bak"))
	if err != nil {
		return
	}

	type backup struct {
		path    string
		modTime time.Time
	}

	var backups []backup
	maxAge := time.Duration(lm.rotationConfig.MaxAge) * 24 * time.Hour
	for _, file := range files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if maxAge > 0 && time.Since(stat.ModTime()) > maxAge {
			os.Remove(file)
			continue
		}
		backups = append(backups, backup{path: file, modTime: stat.ModTime()})
	}

	if lm.rotationConfig.MaxBackups <= 0 || len(backups) <= lm.rotationConfig.MaxBackups {
		return
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.Before(backups[j].modTime)
	})
	for _, b := range backups[:len(backups)-lm.rotationConfig.MaxBackups] {
		os.Remove(b.path)
	}
}

// SetLogLevel updates the log level at runtime
func (lm *LogsManager) SetLogLevel(levelStr string) error {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", levelStr, err)
	}

	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.logger.SetLevel(level)

	return nil
}
