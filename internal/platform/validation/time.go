package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// acceptedTimeLayouts 是请求中日期字段可接受的格式，按顺序尝试。
// 管理面板的 datetime-local 输入不带秒和时区，按UTC处理。
var acceptedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimeFormatError 表示日期字段无法被解析
type TimeFormatError struct {
	Value string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("Invalid date: %q", e.Value)
}

// FlexTime 是请求体中宽松解析的时间，序列化时总是输出RFC3339 UTC
type FlexTime struct {
	time.Time
}

// ParseTime 依次尝试所有可接受的格式
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &TimeFormatError{Value: s}
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// 也接受毫秒时间戳
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return &TimeFormatError{Value: string(data)}
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC())
}
