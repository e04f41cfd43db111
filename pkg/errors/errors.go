package errors

import "errors"

// ErrPartialSeries 子预约批量写入失败：主预约已创建，系列未完整落库
var ErrPartialSeries = errors.New("系列子预约写入失败，主预约已保留")
