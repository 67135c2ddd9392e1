package memory_test

import (
	"testing"

	"github.com/flowlab-edu/flowlab/pkg/adapters/memory"
	"github.com/flowlab-edu/flowlab/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}
