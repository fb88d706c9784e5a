package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/session"
)

func claims(role model.Role) *session.Claims {
	return &session.Claims{UserID: 1, Email: "x@example.com", Role: role}
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name     string
		claims   *session.Claims
		required []model.Role
		want     Decision
	}{
		{"anonymous", nil, nil, LoginRequired},
		{"anonymous on admin route", nil, []model.Role{model.RoleAdmin}, LoginRequired},
		{"zero user id", &session.Claims{Role: model.RoleUser}, nil, LoginRequired},
		{"unknown role", &session.Claims{UserID: 1, Role: "Root"}, nil, LoginRequired},
		{"any authenticated user", claims(model.RoleUser), nil, Allow},
		{"user on admin route", claims(model.RoleUser), []model.Role{model.RoleAdmin}, Forbidden},
		{"admin on admin route", claims(model.RoleAdmin), []model.Role{model.RoleAdmin}, Allow},
		{"staff on staff+admin route", claims(model.RoleStaff), []model.Role{model.RoleStaff, model.RoleAdmin}, Allow},
		{"admin is not implicitly staff", claims(model.RoleAdmin), []model.Role{model.RoleStaff}, Forbidden},
		{"user on user route", claims(model.RoleUser), []model.Role{model.RoleUser}, Allow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Admit(tc.claims, tc.required...))
		})
	}
}

func TestAdmit_Idempotent(t *testing.T) {
	c := claims(model.RoleStaff)
	first := Admit(c, model.RoleAdmin)
	for i := 0; i < 3; i++ {
		require.Equal(t, first, Admit(c, model.RoleAdmin))
	}
	require.Equal(t, model.RoleStaff, c.Role)
}
