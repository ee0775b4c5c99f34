// Package scriptutil 脚本生成相关的文本工具：时长解析、关键词提取
package scriptutil

import (
	"log"
	"regexp"
	"strconv"
	"strings"
)

// DefaultDurationMinutes 无法解析时长时的兜底值
const DefaultDurationMinutes = 3.0

var durationPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(s|sec|secs|second|seconds|m|min|mins|minute|minutes)?$`)

// ParseDurationMinutes 把前端传来的时长换算成分钟
//
//	"30s" -> 0.5, "1m" -> 1, "3m" -> 3, 3 -> 3, "2" -> 2
//
// 其他输入返回 DefaultDurationMinutes 并打印警告
func ParseDurationMinutes(v interface{}) float64 {
	switch d := v.(type) {
	case int:
		return positiveOrDefault(float64(d), v)
	case int64:
		return positiveOrDefault(float64(d), v)
	case float64:
		return positiveOrDefault(d, v)
	case float32:
		return positiveOrDefault(float64(d), v)
	case string:
		return parseDurationString(d)
	}
	log.Printf("[Duration] 无法解析时长 %v，使用默认值 %.0f 分钟", v, DefaultDurationMinutes)
	return DefaultDurationMinutes
}

func parseDurationString(raw string) float64 {
	m := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		log.Printf("[Duration] 无法解析时长 %q，使用默认值 %.0f 分钟", raw, DefaultDurationMinutes)
		return DefaultDurationMinutes
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		log.Printf("[Duration] 无法解析时长 %q，使用默认值 %.0f 分钟", raw, DefaultDurationMinutes)
		return DefaultDurationMinutes
	}

	if strings.HasPrefix(m[2], "s") {
		value = value / 60
	}
	return positiveOrDefault(value, raw)
}

func positiveOrDefault(minutes float64, raw interface{}) float64 {
	if minutes <= 0 {
		log.Printf("[Duration] 时长 %v 不是正数，使用默认值 %.0f 分钟", raw, DefaultDurationMinutes)
		return DefaultDurationMinutes
	}
	return minutes
}
