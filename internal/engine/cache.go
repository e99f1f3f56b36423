package engine

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/golang/glog"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// CacheKey returns the local store key of a collection
func CacheKey(c domain.Collection) string {
	return "library_" + string(c)
}

// loadLibrary reads every collection from the local store. Missing or
// malformed values load as empty collections.
func loadLibrary(local ports.LocalStore) domain.Library {
	return domain.Library{
		Books:      readCollection[domain.Book](local, domain.CollectionBooks),
		Members:    readCollection[domain.Member](local, domain.CollectionMembers),
		Categories: readCollection[string](local, domain.CollectionCategories),
		Classes:    readCollection[string](local, domain.CollectionClasses),
		History:    readCollection[domain.IssueHistoryEntry](local, domain.CollectionHistory),
	}
}

func readCollection[T any](local ports.LocalStore, c domain.Collection) []T {
	raw, err := local.Read(CacheKey(c))
	if err != nil {
		glog.Warningf("engine: reading cached %s: %v", c, err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := sonic.Unmarshal(raw, &out); err != nil {
		glog.V(1).Infof("engine: cached %s is malformed, treating as empty: %v", c, err)
		return nil
	}
	return out
}

// encodeCollection serialises one collection of lib
func encodeCollection(lib domain.Library, c domain.Collection) ([]byte, error) {
	switch c {
	case domain.CollectionBooks:
		return sonic.Marshal(nonNil(lib.Books))
	case domain.CollectionMembers:
		return sonic.Marshal(nonNil(lib.Members))
	case domain.CollectionCategories:
		return sonic.Marshal(nonNil(lib.Categories))
	case domain.CollectionClasses:
		return sonic.Marshal(nonNil(lib.Classes))
	case domain.CollectionHistory:
		return sonic.Marshal(nonNil(lib.History))
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
}

// persistCollections writes the given collections of lib, in one
// transaction when the store supports it
func persistCollections(local ports.LocalStore, lib domain.Library, touched []domain.Collection) error {
	values := make(map[string][]byte, len(touched))
	for _, c := range touched {
		data, err := encodeCollection(lib, c)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		values[CacheKey(c)] = data
	}

	if bw, ok := local.(ports.LocalBatchWriter); ok && len(values) > 1 {
		return bw.WriteAll(values)
	}
	for _, c := range touched {
		key := CacheKey(c)
		if err := local.Write(key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
