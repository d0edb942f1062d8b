package chfanout

import (
	"context"
	"testing"
)

func TestDialNoHostsFails(t *testing.T) {
	_, errs := Dial(Config{})
	if len(errs) == 0 {
		t.Error("Dial with no hosts should report at least one error")
	}
}

func TestDialOneNodePerHostPortCombination(t *testing.T) {
	// clickhouse.Open builds a lazy connection pool and does not itself
	// dial the network, so this only exercises the host x port expansion,
	// not reachability.
	f, errs := Dial(Config{
		Hosts: []string{"127.0.0.1", "127.0.0.2"},
		Ports: []int{9000},
	})
	if len(errs) != 0 {
		t.Fatalf("Dial() errs = %v, want none", errs)
	}
	if len(f.nodes) != 2 {
		t.Errorf("len(nodes) = %d, want 2 (one per host)", len(f.nodes))
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestExecuteOnAllNodesEmptyFanout(t *testing.T) {
	f := &Fanout{}
	results := f.ExecuteOnAllNodes(context.Background(), "SELECT 1")
	if len(results) != 0 {
		t.Errorf("ExecuteOnAllNodes on empty fanout = %v, want empty", results)
	}
}
