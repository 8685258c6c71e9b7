package result

import "testing"

func TestTargetAddr(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Host: "example.com", Port: 443}, "example.com:443"},
		{Target{Host: "example.com", Port: 8443}, "example.com:8443"},
		{Target{Host: "2001:db8::1", Port: 443}, "[2001:db8::1]:443"},
	}
	for _, tt := range tests {
		if got := tt.target.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestOutcomeFaultClasses(t *testing.T) {
	tests := []struct {
		cat       Category
		transport bool
		policy    bool
	}{
		{CategoryOk, false, false},
		{CategoryExpiringSoon, false, false},
		{CategoryExpired, false, true},
		{CategoryHostnameMismatch, false, true},
		{CategoryChainInvalid, false, true},
		{CategoryUnreachable, true, false},
		{CategoryHandshakeFailed, true, false},
		{CategoryTimeout, true, false},
	}
	for _, tt := range tests {
		o := Outcome{Category: tt.cat}
		if got := o.TransportFault(); got != tt.transport {
			t.Errorf("%s: TransportFault() = %v, want %v", tt.cat, got, tt.transport)
		}
		if got := o.PolicyFault(); got != tt.policy {
			t.Errorf("%s: PolicyFault() = %v, want %v", tt.cat, got, tt.policy)
		}
	}
}
