// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package vartype

import "testing"

func TestVariable(t *testing.T) {
	t.Run("zero value is unset", func(t *testing.T) {
		var v VarFloat64
		if v.IsSet() {
			t.Error("expected zero value to be unset")
		}
		if v.String() != "n/a" {
			t.Errorf("expected string to be n/a, got %q", v.String())
		}
		if v.Ptr() != nil {
			t.Error("expected pointer of unset variable to be nil")
		}
	})
	t.Run("set and reset", func(t *testing.T) {
		var v VarFloat64
		v.Set(270.5)
		if !v.IsSet() || v.Value() != 270.5 {
			t.Errorf("expected variable to be set to 270.5, got %s", v)
		}
		v.Reset()
		if v.IsSet() || v.Value() != 0 {
			t.Errorf("expected variable to be reset, got %s", v)
		}
	})
	t.Run("pointer round trip", func(t *testing.T) {
		val := 42.0
		v := FromPtr(&val)
		if !v.IsSet() || v.Value() != 42 {
			t.Errorf("expected variable to be set to 42, got %s", v)
		}
		ptr := v.Ptr()
		if ptr == nil || *ptr != 42 {
			t.Fatal("expected pointer to hold 42")
		}
		*ptr = 1
		if v.Value() != 42 {
			t.Error("expected pointer to be a copy")
		}
		if FromPtr[float64](nil).IsSet() {
			t.Error("expected nil pointer to result in an unset variable")
		}
	})
}
