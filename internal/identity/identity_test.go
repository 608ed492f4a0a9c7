package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleOperator))
	assert.True(t, RoleManager.AtLeast(RoleOperator))
	assert.True(t, RoleOperator.AtLeast(RoleOperator))
	assert.False(t, RoleOperator.AtLeast(RoleManager))

	// Lateral roles never satisfy a ladder gate, including against
	// themselves: CUSTOMER/COMPLIANCE endpoints check role equality, not
	// AtLeast.
	assert.False(t, RoleCustomer.AtLeast(RoleOperator))
	assert.False(t, RoleCompliance.AtLeast(RoleOperator))
}
