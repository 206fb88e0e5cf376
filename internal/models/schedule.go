package models

import (
	"github.com/jinzhu/gorm"
)

// ScheduleRule describes the counter's hours for a single weekday.
// Times are stored as "HH:MM" 24-hour strings. The second period is an
// optional split shift; when active, OpenTime1 < CloseTime1 < OpenTime2 <
// CloseTime2 is assumed.
type ScheduleRule struct {
	gorm.Model
	Weekday              int    `gorm:"unique_index" json:"weekday"`
	IsOpen               bool   `json:"isOpen"`
	OpenTime1            string `json:"openTime1,omitempty"`
	CloseTime1           string `json:"closeTime1,omitempty"`
	OpenTime2            string `json:"openTime2,omitempty"`
	CloseTime2           string `json:"closeTime2,omitempty"`
	IsSecondPeriodActive bool   `json:"isSecondPeriodActive"`
}
