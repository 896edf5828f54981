package repokit

import "testing"

type fakeRepo struct{ q Queryer }

func TestBindFunc(t *testing.T) {
	b := BindFunc[fakeRepo](func(q Queryer) fakeRepo { return fakeRepo{q: q} })
	r := b.Bind(nil)
	if r.q != nil {
		t.Fatalf("expected nil Queryer passthrough")
	}
}

func TestRequireQueryerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("RequireQueryer(nil) should panic")
		}
	}()
	_ = RequireQueryer(nil)
}
