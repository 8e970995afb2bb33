package calendar

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/podroznik/pkg/dateutil"
)

// FileCalendar implements Calendar using a local text file of extra holidays.
// It covers one-off or newly legislated days off that the built-in rules do not know.
type FileCalendar struct {
	filePath string
	logger   *zap.Logger
	data     map[string]string // key: "YYYY-MM-DD"
}

// NewFileCalendar creates a new FileCalendar instance
func NewFileCalendar(filePath string, logger *zap.Logger) *FileCalendar {
	return &FileCalendar{
		filePath: filePath,
		logger:   logger,
		data:     make(map[string]string),
	}
}

// Load loads holiday data from file
func (fc *FileCalendar) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD [name]
		// Example: 2025-12-31 Sylwester
		parts := strings.SplitN(line, " ", 2)
		date, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			fc.logger.Warn("Failed to parse date", zap.String("line", line), zap.Error(err))
			continue
		}

		name := ""
		if len(parts) == 2 {
			name = strings.TrimSpace(parts[1])
		}
		fc.data[date.Format("2006-01-02")] = name
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading calendar file: %w", err)
	}

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("holidays", len(fc.data)))

	return nil
}

// IsHoliday checks if the given date is listed in the file
func (fc *FileCalendar) IsHoliday(date time.Time) bool {
	_, ok := fc.data[date.Format("2006-01-02")]
	return ok
}

// GetDayInfo returns detailed info for a specific day
func (fc *FileCalendar) GetDayInfo(date time.Time) DayInfo {
	day := dateOnly(date)
	name, ok := fc.data[day.Format("2006-01-02")]
	return DayInfo{
		Date:      day,
		Weekday:   dateutil.ISOWeekday(day),
		IsWeekend: dateutil.IsWeekend(day),
		IsHoliday: ok,
		Name:      name,
	}
}
