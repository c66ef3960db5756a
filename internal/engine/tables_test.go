package engine

import "testing"

func TestSustainTableInsertLookupRemove(t *testing.T) {
	tbl := newSustainTable(4)
	tbl.insert("a", 2)
	idx, ok := tbl.lookup("a")
	if !ok || idx != 2 {
		t.Fatalf("expected lookup to find voice 2, got idx=%d ok=%v", idx, ok)
	}
	tbl.remove("a")
	if _, ok := tbl.lookup("a"); ok {
		t.Error("expected lookup to fail after remove")
	}
}

func TestSustainTableInsertSameKeyReplaces(t *testing.T) {
	tbl := newSustainTable(4)
	tbl.insert("a", 1)
	tbl.insert("a", 2)
	if tbl.size() != 1 {
		t.Errorf("expected re-inserting the same key to replace, not grow, size=%d", tbl.size())
	}
	idx, _ := tbl.lookup("a")
	if idx != 2 {
		t.Errorf("expected replaced entry to point at voice 2, got %d", idx)
	}
}

func TestSustainTableClear(t *testing.T) {
	tbl := newSustainTable(4)
	tbl.insert("a", 1)
	tbl.insert("b", 2)
	tbl.clear()
	if tbl.size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", tbl.size())
	}
}

func TestSustainTableCapacityExhaustedDropsSilently(t *testing.T) {
	tbl := newSustainTable(2)
	tbl.insert("a", 0)
	tbl.insert("b", 1)
	tbl.insert("c", 2) // table full, should not panic or grow
	if tbl.size() != 2 {
		t.Errorf("expected size capped at capacity 2, got %d", tbl.size())
	}
	if _, ok := tbl.lookup("c"); ok {
		t.Error("expected the dropped insert to not be findable")
	}
}

func TestTimedTableScheduleAndDue(t *testing.T) {
	tbl := newTimedTable(4)
	tbl.schedule(3, 1000)
	fired := []int{}
	tbl.due(999, func(idx int) { fired = append(fired, idx) })
	if len(fired) != 0 {
		t.Errorf("expected nothing due before the scheduled tick, got %v", fired)
	}
	tbl.due(1000, func(idx int) { fired = append(fired, idx) })
	if len(fired) != 1 || fired[0] != 3 {
		t.Errorf("expected voice 3 due at tick 1000, got %v", fired)
	}
	if tbl.size() != 0 {
		t.Errorf("expected due entry removed after firing, size=%d", tbl.size())
	}
}

func TestTimedTableClear(t *testing.T) {
	tbl := newTimedTable(4)
	tbl.schedule(1, 10)
	tbl.schedule(2, 20)
	tbl.clear()
	if tbl.size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", tbl.size())
	}
}
