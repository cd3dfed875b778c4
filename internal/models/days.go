/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Day indices run Monday=0 .. Sunday=6, matching how collaborators store
// the schedule day-set.
var dayAliases = map[string]int{
	"0": 0, "1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6,
	"MON": 0, "MONDAY": 0,
	"TUE": 1, "TUESDAY": 1,
	"WED": 2, "WEDNESDAY": 2,
	"THU": 3, "THUR": 3, "THURSDAY": 3,
	"FRI": 4, "FRIDAY": 4,
	"SAT": 5, "SATURDAY": 5,
	"SUN": 6, "SUNDAY": 6,
}

// DayIndex converts a Go weekday to the stored Monday=0 numbering.
func DayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// DayMatches reports whether the schedule day-set covers the weekday.
// An empty set means every day.
func (s Schedule) DayMatches(wd time.Weekday) bool {
	if strings.TrimSpace(s.Days) == "" {
		return true
	}
	want := strconv.Itoa(DayIndex(wd))
	for _, tok := range strings.Split(s.Days, ",") {
		if strings.TrimSpace(tok) == want {
			return true
		}
	}
	return false
}

// StartAt resolves the schedule start time on the given date. The error
// surfaces malformed "HH:MM" strings written by collaborators.
func (s Schedule) StartAt(day time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", s.StartTime, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

// NormalizeDays canonicalises a day expression into the stored comma
// separated form. Accepts numeric indices, names ("mon", "friday"),
// ranges ("mon-fri", wrapping allowed), and the aliases "weekdays" and
// "weekends". Empty input normalises to every day.
func NormalizeDays(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "0,1,2,3,4,5,6", nil
	}
	seen := make(map[int]bool)
	for _, raw := range strings.Split(strings.ReplaceAll(expr, "/", ","), ",") {
		token := strings.ToUpper(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		values, err := expandDayToken(token)
		if err != nil {
			return "", err
		}
		for _, v := range values {
			seen[v] = true
		}
	}
	days := make([]int, 0, len(seen))
	for v := range seen {
		days = append(days, v)
	}
	sort.Ints(days)
	parts := make([]string, len(days))
	for i, v := range days {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ","), nil
}

func expandDayToken(token string) ([]int, error) {
	switch token {
	case "WEEKDAY", "WEEKDAYS":
		return []int{0, 1, 2, 3, 4}, nil
	case "WEEKEND", "WEEKENDS":
		return []int{5, 6}, nil
	}
	if strings.Contains(token, "-") {
		parts := strings.SplitN(token, "-", 2)
		start, err := parseDay(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		end, err := parseDay(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		var out []int
		for d := start; ; d = (d + 1) % 7 {
			out = append(out, d)
			if d == end {
				break
			}
		}
		return out, nil
	}
	day, err := parseDay(token)
	if err != nil {
		return nil, err
	}
	return []int{day}, nil
}

func parseDay(token string) (int, error) {
	if v, ok := dayAliases[token]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown day token %q", token)
}
