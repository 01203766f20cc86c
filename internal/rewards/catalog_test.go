package rewards

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	opt, err := Lookup("tree")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if opt.Cost != 200 || opt.Action != ActionAnimation {
		t.Fatalf("unexpected option %+v", opt)
	}
	if opt.RedirectPath() != "" {
		t.Fatalf("animation option must not redirect")
	}

	if _, err := Lookup("free-lunch"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
}

func TestRedirectPath(t *testing.T) {
	opt, _ := Lookup("gst_full_above_200")
	if got := opt.RedirectPath(); got != "/irctc-food-demo?discount=999" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestCatalogIsACopy(t *testing.T) {
	c := Catalog()
	c[0].Cost = 1
	if fresh := Catalog(); fresh[0].Cost != 100 {
		t.Fatalf("catalog mutated through returned slice")
	}
}
