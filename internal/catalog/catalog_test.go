package catalog

import "testing"

func TestBrandByID(t *testing.T) {
	b, ok := BrandByID("vg")
	if !ok || b.Name != "VG" || b.Country != "NO" {
		t.Errorf("BrandByID(vg) = %+v, %v", b, ok)
	}
	if _, ok := BrandByID("nope"); ok {
		t.Error("unknown brand id should miss")
	}
}

func TestCommunicationTypeByID(t *testing.T) {
	c, ok := CommunicationTypeByID("winback")
	if !ok || c.Name != "Winback" {
		t.Errorf("CommunicationTypeByID(winback) = %+v, %v", c, ok)
	}
	if _, ok := CommunicationTypeByID("nope"); ok {
		t.Error("unknown type id should miss")
	}
}
