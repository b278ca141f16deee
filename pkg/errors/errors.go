package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrNoRowsAffected 条件更新未命中任何行（比较并交换失败）
var ErrNoRowsAffected = errors.New("条件更新未命中任何记录")
