package calendar

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CompositeCalendar implements Calendar as the union of two calendars
// Primary: PolishCalendar (statutory rules)
// Extra: FileCalendar (local additions)
type CompositeCalendar struct {
	primary Calendar
	extra   Calendar
	logger  *zap.Logger
}

// NewCompositeCalendar creates a new CompositeCalendar
func NewCompositeCalendar(primary, extra Calendar, logger *zap.Logger) *CompositeCalendar {
	return &CompositeCalendar{
		primary: primary,
		extra:   extra,
		logger:  logger,
	}
}

// IsHoliday checks if either calendar marks the date as a holiday
func (cc *CompositeCalendar) IsHoliday(date time.Time) bool {
	return cc.primary.IsHoliday(date) || cc.extra.IsHoliday(date)
}

// GetDayInfo returns detailed info for a specific day, preferring the primary calendar's name
func (cc *CompositeCalendar) GetDayInfo(date time.Time) DayInfo {
	info := cc.primary.GetDayInfo(date)
	if info.IsHoliday {
		return info
	}
	return cc.extra.GetDayInfo(date)
}

// LoadExtra loads the extra calendar (if FileCalendar)
func (cc *CompositeCalendar) LoadExtra() error {
	if fc, ok := cc.extra.(*FileCalendar); ok {
		if err := fc.Load(); err != nil {
			return fmt.Errorf("failed to load extra holidays: %w", err)
		}
		cc.logger.Info("Extra holidays loaded successfully")
	}
	return nil
}

// New builds the calendar used by the application: the statutory Polish holidays,
// optionally extended by a file of extra days off
func New(extraHolidaysFile string, logger *zap.Logger) (Calendar, error) {
	polish := NewPolishCalendar(logger)
	if extraHolidaysFile == "" {
		return polish, nil
	}

	composite := NewCompositeCalendar(polish, NewFileCalendar(extraHolidaysFile, logger), logger)
	if err := composite.LoadExtra(); err != nil {
		return nil, err
	}
	return composite, nil
}
