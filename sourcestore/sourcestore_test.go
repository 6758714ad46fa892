package sourcestore

import "testing"

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Driver("bogus"), "whatever")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestDriverAliasesAreDistinctConstants(t *testing.T) {
	if DriverPostgreSQL == DriverPgsql {
		t.Fatal("DriverPostgreSQL and DriverPgsql should be distinct string values accepted as aliases")
	}
}
