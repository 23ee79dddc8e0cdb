package core

import "time"

// TimeWindow 是半开区间 [Start, End)。
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow 在两个端点都存在时构造窗口，否则返回 nil（不做可用性过滤）。
func NewTimeWindow(start, end *time.Time) (*TimeWindow, error) {
	if start == nil || end == nil {
		return nil, nil
	}
	if !end.After(*start) {
		return nil, NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, "time window end must be after start")
	}
	return &TimeWindow{Start: *start, End: *end}, nil
}

// Overlaps 判断 [s1,e1) 与 [s2,e2) 是否重叠，首尾相接不算重叠。
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// Overlaps 判断窗口是否与 [start,end) 重叠。
func (w *TimeWindow) Overlaps(start, end time.Time) bool {
	if w == nil {
		return false
	}
	return Overlaps(w.Start, w.End, start, end)
}
