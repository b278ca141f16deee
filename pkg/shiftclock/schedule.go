// Package shiftclock 提供航班班次表与参考时区下的班次区间换算。
//
// 班次表是静态数据：每个航班代码对应一个本地起止时刻，跨午夜的班次
// 结束时刻落在次日。代码未知时回退到默认班次 09:00-17:00。
package shiftclock

import (
	"fmt"
	"sort"
)

// ShiftCode 航班 / 班次代码，例如 AV255 或组合代码 AV627-AV205
type ShiftCode string

// 已知班次代码
const (
	AV255       ShiftCode = "AV255"
	AV619       ShiftCode = "AV619"
	AV627       ShiftCode = "AV627"
	AV205       ShiftCode = "AV205"
	AV625       ShiftCode = "AV625"
	AV255AV627  ShiftCode = "AV255-AV627"
	AV619AV627  ShiftCode = "AV619-AV627"
	AV627AV205  ShiftCode = "AV627-AV205"
	DefaultCode ShiftCode = ""
)

// Clock 一天中的本地时刻（时:分）
type Clock struct {
	Hour   int
	Minute int
}

// String 以 HH:MM 输出
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Before 比较两个时刻
func (c Clock) Before(o Clock) bool {
	return c.Hour*60+c.Minute < o.Hour*60+o.Minute
}

// Entry 班次表条目
type Entry struct {
	Code      ShiftCode `json:"code"`
	Start     Clock     `json:"-"`
	End       Clock     `json:"-"`
	Overnight bool      `json:"overnight"`
	Display   string    `json:"display"` // 面向员工的西语展示文本
}

// StartText 起始时刻文本
func (e Entry) StartText() string { return e.Start.String() }

// EndText 结束时刻文本
func (e Entry) EndText() string { return e.End.String() }

// defaultEntry 未知代码的回退班次
var defaultEntry = Entry{
	Code:    DefaultCode,
	Start:   Clock{9, 0},
	End:     Clock{17, 0},
	Display: "09:00-17:00",
}

// table 班次表，Overnight 必须等于 End < Start
var table = map[ShiftCode]Entry{
	AV255:      {Code: AV255, Start: Clock{5, 0}, End: Clock{10, 0}, Display: "5:00-10:00"},
	AV619:      {Code: AV619, Start: Clock{4, 0}, End: Clock{9, 0}, Display: "04:00-09:00"},
	AV627:      {Code: AV627, Start: Clock{13, 0}, End: Clock{17, 30}, Display: "13:00-17:30"},
	AV205:      {Code: AV205, Start: Clock{20, 0}, End: Clock{0, 30}, Overnight: true, Display: "20:00-00:30 (día siguiente)"},
	AV625:      {Code: AV625, Start: Clock{20, 0}, End: Clock{2, 30}, Overnight: true, Display: "20:00-02:30 (día siguiente)"},
	AV255AV627: {Code: AV255AV627, Start: Clock{5, 0}, End: Clock{17, 30}, Display: "5:00-17:30"},
	AV619AV627: {Code: AV619AV627, Start: Clock{5, 0}, End: Clock{17, 30}, Display: "5:00-17:30"},
	AV627AV205: {Code: AV627AV205, Start: Clock{13, 0}, End: Clock{0, 30}, Overnight: true, Display: "13:00-00:30 (día siguiente)"},
}

// Lookup 查询班次表，未知代码返回 ok=false
func Lookup(code ShiftCode) (Entry, bool) {
	e, ok := table[code]
	return e, ok
}

// EntryFor 查询班次表，未知代码回退到默认班次
func EntryFor(code ShiftCode) Entry {
	if e, ok := table[code]; ok {
		return e
	}
	return defaultEntry
}

// Default 返回默认班次
func Default() Entry { return defaultEntry }

// Entries 按代码排序返回全部已知班次
func Entries() []Entry {
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Known 是否为班次表中的代码
func (c ShiftCode) Known() bool {
	_, ok := table[c]
	return ok
}
