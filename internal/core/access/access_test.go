package access

import (
	"testing"

	"estatehub/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Decision
	}{
		{
			name: "anonymous is redirected with return target",
			req:  Request{RequireAdmin: true, Target: "/admin/listings"},
			want: Decision{Outcome: Redirect, ReturnTo: "/admin/listings"},
		},
		{
			name: "signed in on open route",
			req:  Request{SignedIn: true, Privileged: Unknown},
			want: Decision{Outcome: Allow},
		},
		{
			name: "standard user on admin route is denied not redirected",
			req:  Request{SignedIn: true, RequireAdmin: true, Privileged: False, Role: domain.RoleUser},
			want: Decision{Outcome: Deny, Role: "standard"},
		},
		{
			name: "admin on admin route",
			req:  Request{SignedIn: true, RequireAdmin: true, Privileged: True, Role: domain.RoleAdmin},
			want: Decision{Outcome: Allow},
		},
		{
			name: "unknown role is pending",
			req:  Request{SignedIn: true, RequireAdmin: true},
			want: Decision{Outcome: Pending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.req))
		})
	}
}

func TestSettle(t *testing.T) {
	assert.Equal(t, Decision{Outcome: Deny, Role: "unknown"}, Settle(Decision{Outcome: Pending}))
	assert.Equal(t, Decision{Outcome: Allow}, Settle(Decision{Outcome: Allow}))
}

func TestPrivileged(t *testing.T) {
	assert.Equal(t, Unknown, Privileged(""))
	assert.Equal(t, False, Privileged(domain.RoleUser))
	assert.Equal(t, True, Privileged(domain.RoleAdmin))
	assert.Equal(t, "unknown", Unknown.String())
}
