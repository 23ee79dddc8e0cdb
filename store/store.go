// Package store 提供领域接口的基础设施实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var cache core.Store = NewMemoryStore()
//	var repo core.Catalog = NewMemoryRepository()
//	var index core.VectorDatabaseService = NewMemoryVectorService()
package store

import "github.com/rushteam/roomrec/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于包内使用
var ErrNotFound = core.ErrStoreNotFound
