package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		quantity int
		wantErr  bool
	}{
		{0, true},
		{1, false},
		{10000, false},
		{10001, true},
		{-5, true},
	}

	for _, tt := range tests {
		err := ValidateQuantity(tt.quantity)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateQuantity(%d) error = %v, wantErr %v", tt.quantity, err, tt.wantErr)
		}
	}
}

func TestValidCondition(t *testing.T) {
	for _, c := range Conditions {
		if !ValidCondition(c) {
			t.Errorf("ValidCondition(%q) = false, want true", c)
		}
	}
	if ValidCondition("") || ValidCondition("mint") {
		t.Error("expected unknown conditions to be invalid")
	}
}

func TestValidRoomType(t *testing.T) {
	for _, rt := range RoomTypes {
		if !ValidRoomType(rt) {
			t.Errorf("ValidRoomType(%q) = false, want true", rt)
		}
	}
	// Empty is allowed: locations are not always rooms.
	if !ValidRoomType("") {
		t.Error("expected empty room type to be valid")
	}
	if ValidRoomType("ballroom") {
		t.Error("expected unknown room type to be invalid")
	}
}
