// Package ecs 提供各系统共用的实体/组件存储
package ecs

import (
	"reflect"
	"sort"
)

// EntityID 是实体的唯一标识符, 0 保留为无效 ID.
type EntityID uint64

// EntityManager 管理所有实体和组件
//
// 查询结果按 ID 升序返回, 每个 tick 访问角色的顺序固定。
type EntityManager struct {
	nextID uint64
	// EntityID -> component type -> component
	components map[EntityID]map[reflect.Type]interface{}
	// 待删除的实体, RemoveMarkedEntities 时统一清理
	entitiesToDestroy []EntityID
}

// NewEntityManager 创建空的 EntityManager, 第一个实体的 ID 为 1
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:     1,
		components: make(map[EntityID]map[reflect.Type]interface{}),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.components[id] = make(map[reflect.Type]interface{})
	return id
}

// IsAlive 判断实体是否存在且尚未被清理
func (em *EntityManager) IsAlive(id EntityID) bool {
	_, ok := em.components[id]
	return ok
}

// DestroyEntity 标记实体待删除
//
// 在 RemoveMarkedEntities 之前其组件仍可读取。
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// AddComponent 为实体添加组件, 同类型的旧组件会被替换
//
// 实体不存在时不做任何事。
func (em *EntityManager) AddComponent(id EntityID, component interface{}) {
	if compMap, exists := em.components[id]; exists {
		compMap[reflect.TypeOf(component)] = component
	}
}

// RemoveComponent 移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if compMap, exists := em.components[id]; exists {
		delete(compMap, componentType)
	}
}

// GetComponent 获取指定类型的组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (interface{}, bool) {
	comp, found := em.components[id][componentType]
	return comp, found
}

// HasComponent 判断实体是否拥有指定类型的组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, found := em.components[id][componentType]
	return found
}

// RemoveMarkedEntities 清理所有通过 DestroyEntity 标记的实体
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.entitiesToDestroy {
		delete(em.components, id)
	}
	em.entitiesToDestroy = em.entitiesToDestroy[:0]
}

// GetEntitiesWith 返回同时拥有 componentTypes 中所有组件的实体, 按 ID 升序
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	result := make([]EntityID, 0)
	for id, compMap := range em.components {
		hasAll := true
		for _, ct := range componentTypes {
			if _, found := compMap[ct]; !found {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, id)
		}
	}
	sortIDs(result)
	return result
}

func sortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
