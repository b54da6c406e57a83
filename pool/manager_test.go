// File: pool/manager_test.go
// Author: momentics <momentics@gmail.com>

package pool_test

import (
	"testing"

	"github.com/momentics/hioload-devmem/pool"
)

func TestManagerReusesPoolPerNode(t *testing.T) {
	mgr := pool.NewManager(8*blockSize, blockSize, pool.WithReserver(pool.HeapReserver()))
	defer mgr.CloseAll()

	p1, err := mgr.GetPool(-1)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := mgr.GetPool(-1)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatal("same node must return the same pool")
	}

	other, err := mgr.GetPool(0)
	if err != nil {
		t.Fatal(err)
	}
	if other == p1 {
		t.Fatal("distinct nodes must get independent pools")
	}
	if other.NUMANode() != 0 {
		t.Fatalf("node = %d, want 0", other.NUMANode())
	}
}

func TestManagerCloseAll(t *testing.T) {
	mgr := pool.NewManager(4*blockSize, blockSize, pool.WithReserver(pool.HeapReserver()))
	p, err := mgr.GetPool(-1)
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.CloseAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Alloc(blockSize, 1); err == nil {
		t.Fatal("pool must reject allocation after CloseAll")
	}
}
