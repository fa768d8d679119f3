package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday order used for sorting slots chronologically.
var weekdayOrder = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// WeekdayIndex returns 1-based position of the day, 0 for unknown names.
func WeekdayIndex(day string) int {
	return weekdayOrder[strings.ToUpper(strings.TrimSpace(day))]
}

// ParseClock converts "HH:MM" to minutes since midnight. Returns -1 on bad input.
func ParseClock(raw string) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
