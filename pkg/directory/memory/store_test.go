package memory_test

import (
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/memory"
	"github.com/mlohr/groupdrive/pkg/directory/storetest"
)

func TestMemoryStore(t *testing.T) {
	suite := storetest.Suite{
		NewStore: func(t *testing.T) directory.Store {
			store := memory.NewStore()
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
	suite.Run(t)
}
