package shiftclock

import (
	"fmt"
	"time"

	// 内嵌 IANA 时区数据库，容器镜像缺少 /usr/share/zoneinfo 时仍可解析
	_ "time/tzdata"
)

// Interval 班次的绝对时间区间（UTC）
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration 区间时长
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Resolver 在参考时区下把（日期, 班次代码）换算为 UTC 区间
type Resolver struct {
	loc *time.Location
}

// NewResolver 使用给定时区创建换算器
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// LoadResolver 按 IANA 名称加载时区并创建换算器
func LoadResolver(name string) (*Resolver, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %s 失败: %w", name, err)
	}
	return NewResolver(loc), nil
}

// Location 参考时区
func (r *Resolver) Location() *time.Location { return r.loc }

// Resolve 计算班次区间
//
// 起点为 d 当天的本地开始时刻；跨午夜班次的终点落在 d+1。
// 夏令时缺口中的本地时刻由 time.Date 向后归一化。
func (r *Resolver) Resolve(d Date, code ShiftCode) Interval {
	e := EntryFor(code)
	start := d.In(e.Start, r.loc)
	endDay := d
	if e.Overnight {
		endDay = d.AddDays(1)
	}
	end := endDay.In(e.End, r.loc)
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// Today 参考时区下 now 所在的日历日期
func (r *Resolver) Today(now time.Time) Date {
	return DateOf(now.In(r.loc))
}

// Local 把时间点转换到参考时区
func (r *Resolver) Local(t time.Time) time.Time { return t.In(r.loc) }

// ── 西语展示格式 ──

var weekdaysES = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// WeekdayES 星期的西语名称
func WeekdayES(w time.Weekday) string { return weekdaysES[w] }

// FormatDate 输出 "YYYY-MM-DD (Día)"
func FormatDate(d Date) string {
	return fmt.Sprintf("%s (%s)", d.String(), WeekdayES(d.Weekday()))
}

// FormatDateTime 输出参考时区下的 "YYYY-MM-DD (Día) HH:MM (hora Toronto)"
func (r *Resolver) FormatDateTime(t time.Time) string {
	local := t.In(r.loc)
	return fmt.Sprintf("%s %s (hora Toronto)", FormatDate(DateOf(local)), local.Format("15:04"))
}
