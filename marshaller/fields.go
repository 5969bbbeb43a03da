package marshaller

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// fieldInfo describes a single tagged struct field.
type fieldInfo struct {
	Name     string
	Key      string
	Index    []int
	Required bool
}

// fieldMap is the pre-computed view of a struct type used by both decoding and encoding.
type fieldMap struct {
	// Fields are kept in declaration order, which is also the encoding order.
	Fields []fieldInfo
	byKey  map[string]int
}

func (m *fieldMap) lookup(key string) (fieldInfo, bool) {
	i, ok := m.byKey[key]
	if !ok {
		return fieldInfo{}, false
	}
	return m.Fields[i], true
}

type fieldCache struct {
	cache sync.Map // map[reflect.Type]*fieldMap
	size  atomic.Int64
}

var globalFieldCache = &fieldCache{}

func getFieldMap(typ reflect.Type) *fieldMap {
	if cached, ok := globalFieldCache.cache.Load(typ); ok {
		return cached.(*fieldMap)
	}

	fm := buildFieldMap(typ)
	if actual, loaded := globalFieldCache.cache.LoadOrStore(typ, fm); loaded {
		return actual.(*fieldMap)
	}
	globalFieldCache.size.Add(1)

	return fm
}

func buildFieldMap(typ reflect.Type) *fieldMap {
	fm := &fieldMap{byKey: map[string]int{}}
	collectFields(fm, typ, nil)
	return fm
}

// collectFields adds the tagged fields of typ to fm. Untagged embedded structs are inlined.
func collectFields(fm *fieldMap, typ reflect.Type, parentIndex []int) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("key")

		index := make([]int, 0, len(parentIndex)+1)
		index = append(index, parentIndex...)
		index = append(index, i)

		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			collectFields(fm, field.Type, index)
			continue
		}

		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}
		key, _, _ := strings.Cut(tag, ",")

		// Outer fields shadow inlined ones.
		if _, exists := fm.byKey[key]; exists && len(parentIndex) > 0 {
			continue
		}

		fm.byKey[key] = len(fm.Fields)
		fm.Fields = append(fm.Fields, fieldInfo{
			Name:     field.Name,
			Key:      key,
			Index:    index,
			Required: field.Tag.Get("required") == "true",
		})
	}
}

// FieldCacheStats contains basic statistics about the field cache
type FieldCacheStats struct {
	Size int64
}

// ClearGlobalFieldCache drops all pre-computed struct field maps.
func ClearGlobalFieldCache() {
	globalFieldCache.cache.Range(func(key, _ any) bool {
		globalFieldCache.cache.Delete(key)
		return true
	})
	globalFieldCache.size.Store(0)
}

// GetFieldCacheStats returns statistics about the global field cache.
func GetFieldCacheStats() FieldCacheStats {
	return FieldCacheStats{Size: globalFieldCache.size.Load()}
}
