package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmylchreest/themesd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_ListAll_Ordered(t *testing.T) {
	reg := NewMemoryRegistry(map[string]*models.Theme{
		"twentysixteen":   {Name: "Twenty Sixteen"},
		"twentyseventeen": {Name: "Twenty Seventeen"},
		"astra":           {Name: "Astra"},
	})

	entries, err := reg.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "astra", entries[0].Key)
	assert.Equal(t, "twentyseventeen", entries[1].Key)
	assert.Equal(t, "twentysixteen", entries[2].Key)
}

func TestMemoryRegistry_Delete(t *testing.T) {
	reg := NewMemoryRegistry(map[string]*models.Theme{"astra": {Name: "Astra"}})
	ctx := context.Background()

	require.NoError(t, reg.Delete(ctx, "astra"))
	assert.ErrorIs(t, reg.Delete(ctx, "astra"), ErrNotFound)

	entries, err := reg.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryRegistry_CanceledContext(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		key := fmt.Sprintf("theme-%02d", i)
		go func() {
			defer wg.Done()
			reg.Put(key, &models.Theme{Name: key})
		}()
		go func() {
			defer wg.Done()
			_, _ = reg.ListAll(ctx)
		}()
	}
	wg.Wait()

	entries, err := reg.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
