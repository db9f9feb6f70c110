package analyzer

import "strings"

const noTime = "-"

// FormatTimeRange 将首次/末次时间压缩为 HH:MM 或 HH:MM~HH:MM
func FormatTimeRange(first, last string) string {
	f := clockOf(first)
	l := clockOf(last)
	if f == l || l == noTime {
		return f
	}
	return f + "~" + l
}

// clockOf 提取时分部分，支持 "2026-01-04 12:30:00"、"2026-01-04T12:30:00"、"12:30" 等格式
func clockOf(s string) string {
	if s == "" {
		return noTime
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == 'T' })
	for _, f := range fields {
		if strings.Contains(f, ":") {
			return headRunes(f, 5)
		}
	}
	return headRunes(s, 5)
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
