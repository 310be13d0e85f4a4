package comic

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     Role
	}{
		{"coverA_001.jpg", RoleCoverAlbum},
		{"coverA.jpg", RoleCoverAlbum},
		{"coverF_002.jpg", RoleCoverFull},
		{"coverS_010.jpg", RoleCoverStrip},
		{"page_001.jpg", RolePage},
		{"page003.jpg", RolePage},
		{"page_.jpg", RolePage},
		{"cover_001.jpg", RoleNone},
		{"coverB_001.jpg", RoleNone},
		{"page_001.png", RoleNone},
		{"page_001.jpg.bak", RoleNone},
		{"notes.txt", RoleNone},
		{".comicshelf", RoleNone},
		{"", RoleNone},
	}
	for _, tt := range tests {
		if got := Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.filename, got, tt.want)
		}
		// Classify is deterministic.
		if got := Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) second call = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestRoleSingleSlot(t *testing.T) {
	for _, r := range []Role{RoleCoverAlbum, RoleCoverFull, RoleCoverStrip} {
		if !r.SingleSlot() {
			t.Errorf("%v should be single-slot", r)
		}
	}
	if RolePage.SingleSlot() {
		t.Error("pages are not single-slot")
	}
	if RoleNone.SingleSlot() {
		t.Error("none is not single-slot")
	}
}
